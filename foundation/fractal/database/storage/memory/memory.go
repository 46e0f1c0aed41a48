// Package memory implements block and triangle storage in process memory.
// Nothing survives a restart, which is what the tests want.
package memory

import (
	"errors"
	"sync"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database block and stores it in memory.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := len(m.blocks)
	if l+1 != int(blockData.Header.Number) {
		return errors.New("block is out of order")
	}

	m.blocks = append(m.blocks, blockData)

	return nil
}

// GetBlock locates and returns the contents of the specified block by number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, errors.New("block does not exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset clears out the in memory block log.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = []database.BlockData{}
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++
	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}

// =============================================================================

// Triangles represents an in memory triangle record store. This implements
// the database.TriangleStore interface.
type Triangles struct {
	mu      sync.RWMutex
	records map[string]database.Triangle
}

// NewTriangles constructs a Triangles value for use.
func NewTriangles() (*Triangles, error) {
	return &Triangles{records: make(map[string]database.Triangle)}, nil
}

// Get returns the triangle record for the specified key.
func (t *Triangles) Get(key string) (database.Triangle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tri, exists := t.records[key]
	if !exists {
		return database.Triangle{}, database.ErrNotFound
	}

	return tri, nil
}

// PutBatch applies the specified changes as a single unit.
func (t *Triangles) PutBatch(changes map[string]database.Triangle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, tri := range changes {
		t.records[key] = tri
	}

	return nil
}

// ForEach walks every triangle record in the store.
func (t *Triangles) ForEach(fn func(t database.Triangle) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, tri := range t.records {
		if err := fn(tri); err != nil {
			return err
		}
	}

	return nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (t *Triangles) Close() error {
	return nil
}

// Reset clears out all the triangle records.
func (t *Triangles) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make(map[string]database.Triangle)
	return nil
}
