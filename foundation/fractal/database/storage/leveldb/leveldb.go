// Package leveldb implements triangle record storage on disk using LevelDB.
// A single write batch carries all the changes from one block so a crash
// never leaves a half applied block behind.
package leveldb

import (
	"encoding/json"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// LevelDB represents triangle record storage backed by a LevelDB database.
// This implements the database.TriangleStore interface.
type LevelDB struct {
	db *leveldb.DB
}

// New constructs a LevelDB value for use, opening or creating the database
// at the specified path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}

// Get returns the triangle record for the specified key.
func (l *LevelDB) Get(key string) (database.Triangle, error) {
	data, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Triangle{}, database.ErrNotFound
		}
		return database.Triangle{}, err
	}

	var t database.Triangle
	if err := json.Unmarshal(data, &t); err != nil {
		return database.Triangle{}, err
	}

	return t, nil
}

// PutBatch applies the specified changes in a single LevelDB write batch.
func (l *LevelDB) PutBatch(changes map[string]database.Triangle) error {
	batch := new(leveldb.Batch)

	for key, t := range changes {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		batch.Put([]byte(key), data)
	}

	return l.db.Write(batch, nil)
}

// ForEach walks every triangle record in the database.
func (l *LevelDB) ForEach(fn func(t database.Triangle) error) error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		var t database.Triangle
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}

	return iter.Error()
}

// Close closes the underlying LevelDB database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Reset removes every triangle record from the database.
func (l *LevelDB) Reset() error {
	iter := l.db.NewIterator(nil, nil)

	batch := new(leveldb.Batch)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()

	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, nil)
}
