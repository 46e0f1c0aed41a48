// Package database maintains the fractal chain state: the triangle records,
// their state machine, and the block log. All mutation funnels through block
// application so two blocks are never applied concurrently against the same
// base state.
package database

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"

	"github.com/triadchain/triadchain/foundation/fractal/genesis"
	"github.com/triadchain/triadchain/foundation/fractal/geometry"
	"github.com/triadchain/triadchain/foundation/fractal/signature"
)

// vertexCacheSize bounds the derived-vertex cache. Derivation is pure, so
// eviction only costs recomputation.
const vertexCacheSize = 16384

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the block log.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// TriangleStore interface represents the behavior required to be implemented
// by any package providing support for storing triangle records. PutBatch
// must be atomic: either every change in the batch is visible or none are.
type TriangleStore interface {
	Get(key string) (Triangle, error)
	PutBatch(changes map[string]Triangle) error
	ForEach(fn func(t Triangle) error) error
	Close() error
	Reset() error
}

// =============================================================================

// DatabaseIterator provides block iteration in database form.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di *DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// Database manages the triangle records and block log for the chain.
type Database struct {
	mu sync.RWMutex

	genesis         genesis.Genesis
	genesisVertices geometry.Vertices
	latestBlock     Block

	store     TriangleStore
	storage   Storage
	vertexLRU *lru.Cache
}

// New constructs a new database, seeds the genesis triangle, and replays any
// blocks already present in storage to rebuild the triangle state.
func New(gen genesis.Genesis, store TriangleStore, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	gv, err := gen.GenesisVertices()
	if err != nil {
		return nil, err
	}

	cache, err := lru.New(vertexCacheSize)
	if err != nil {
		return nil, err
	}

	db := Database{
		genesis:         gen,
		genesisVertices: gv,
		store:           store,
		storage:         storage,
		vertexLRU:       cache,
	}

	if err := db.seedGenesis(); err != nil {
		return nil, err
	}

	// Replay the block log to rebuild the triangle state. Each block is
	// fully re-validated so a corrupted log can't poison the node.
	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.latestBlock, gen.ChainID, evHandler); err != nil {
			return nil, err
		}

		if err := db.applyBlock(block, false); err != nil {
			return nil, err
		}
	}

	return &db, nil
}

// Close closes the underlying stores.
func (db *Database) Close() {
	db.storage.Close()
	db.store.Close()
}

// Reset re-initializes the database back to the genesis state. This is used
// to correct an identified fork by replaying the new canonical sequence.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}
	if err := db.store.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}

	return db.seedGenesis()
}

// =============================================================================

// GetTriangle returns the record for the specified address.
func (db *Database) GetTriangle(addr Address) (Triangle, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, err := db.store.Get(addr.String())
	if err != nil {
		return Triangle{}, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}

	return t, nil
}

// CopyTriangles makes a snapshot copy of the current triangle records. A
// reader sees either the pre- or post-block state, never a partial one.
func (db *Database) CopyTriangles() map[string]Triangle {
	db.mu.RLock()
	defer db.mu.RUnlock()

	triangles := make(map[string]Triangle)
	db.store.ForEach(func(t Triangle) error {
		triangles[t.Address.String()] = t
		return nil
	})

	return triangles
}

// Vertices recomputes the three vertices for the specified address from the
// genesis vertices. Pure derivation: two nodes holding the same address
// always compute bit-identical coordinates.
func (db *Database) Vertices(addr Address) (geometry.Vertices, error) {
	return db.verticesFor(addr)
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// GetBlock returns the contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// ForEach returns an iterator to walk through all the blocks starting with
// block number 1.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// =============================================================================

// ApplyBlock performs the business logic of applying a block's transactions
// to the triangle state. Validation is fully checked before any write: on
// any failure the store is untouched and the error describes the first
// offending transaction. On success the block is written to the log and the
// staged triangle changes are committed in one atomic batch.
func (db *Database) ApplyBlock(block Block) error {
	return db.applyBlock(block, true)
}

func (db *Database) applyBlock(block Block, persist bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stage := make(map[string]Triangle)
	touched := make(map[string]bool)

	read := func(addr Address) (Triangle, error) {
		if t, ok := stage[addr.String()]; ok {
			return t, nil
		}
		return db.store.Get(addr.String())
	}

	blockHash := block.Hash()

	for _, tx := range block.Trans.Values() {
		issuer, err := tx.FromAccount()
		if err != nil {
			return err
		}

		key := tx.Address.String()
		if touched[key] {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, tx.Address)
		}

		t, err := read(tx.Address)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrNotFound, tx.Address)
		}

		switch tx.Op {
		case OpSubdivide:
			if t.State.IsTerminal() {
				return fmt.Errorf("%w: %s is %s", ErrAlreadyFinalized, tx.Address, t.State)
			}
			if !t.State.CanSubdivide() {
				return fmt.Errorf("%w: %s is %s", ErrInvalidState, tx.Address, t.State)
			}
			if t.Depth()+1 > int(db.genesis.MaxDepth) {
				return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrDegenerateGeometry, t.Depth()+1, db.genesis.MaxDepth)
			}

			for _, child := range tx.Address.Children() {
				if _, err := db.verticesFor(child); err != nil {
					return err
				}

				childKey := child.String()
				stage[childKey] = Triangle{
					Address:        child,
					State:          StateActive,
					Owner:          issuer,
					CreatedInBlock: blockHash,
				}
				touched[childKey] = true
			}

			t.State = StateSubdivided
			stage[key] = t
			touched[key] = true

		case OpVoid:
			if t.State.IsTerminal() {
				return fmt.Errorf("%w: %s is %s", ErrAlreadyFinalized, tx.Address, t.State)
			}
			if t.State != StateActive {
				return fmt.Errorf("%w: %s is %s, need %s", ErrInvalidState, tx.Address, t.State, StateActive)
			}

			t.State = StateVoid
			stage[key] = t
			touched[key] = true

		default:
			return fmt.Errorf("%w: unknown operation %q", ErrMalformed, tx.Op)
		}
	}

	if persist {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return err
		}
	}

	if err := db.store.PutBatch(stage); err != nil {
		return err
	}

	db.latestBlock = block

	return nil
}

// =============================================================================

// FractalStats represents accounting over the current fractal state.
type FractalStats struct {
	Active     int             `json:"active"`
	Subdivided int             `json:"subdivided"`
	Void       int             `json:"void"`
	MaxDepth   int             `json:"max_depth"`
	ActiveArea decimal.Decimal `json:"active_area"`
}

// Stats walks the triangle records and accounts for states, depth, and the
// remaining subdividable area.
func (db *Database) Stats() (FractalStats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var stats FractalStats

	err := db.store.ForEach(func(t Triangle) error {
		switch t.State {
		case StateActive, StateGenesis:
			stats.Active++

			vs, err := db.verticesFor(t.Address)
			if err != nil {
				return err
			}
			stats.ActiveArea = stats.ActiveArea.Add(geometry.Area(vs))

		case StateSubdivided:
			stats.Subdivided++

		case StateVoid:
			stats.Void++
		}

		if t.Depth() > stats.MaxDepth {
			stats.MaxDepth = t.Depth()
		}

		return nil
	})
	if err != nil {
		return FractalStats{}, err
	}

	return stats, nil
}

// =============================================================================

// seedGenesis makes sure the genesis triangle record exists. There is
// exactly one per chain and it is created by the genesis file, not a block.
func (db *Database) seedGenesis() error {
	if _, err := db.store.Get(GenesisAddressText); err == nil {
		return nil
	}

	root := Triangle{
		Address:        Address{},
		State:          StateGenesis,
		CreatedInBlock: signature.ZeroHash,
	}

	return db.store.PutBatch(map[string]Triangle{GenesisAddressText: root})
}

// verticesFor derives and caches the vertices for an address, enforcing the
// maximum representable depth.
func (db *Database) verticesFor(addr Address) (geometry.Vertices, error) {
	if addr.Depth() > int(db.genesis.MaxDepth) {
		return geometry.Vertices{}, fmt.Errorf("%w: depth %d exceeds maximum %d", ErrDegenerateGeometry, addr.Depth(), db.genesis.MaxDepth)
	}

	key := addr.String()
	if v, ok := db.vertexLRU.Get(key); ok {
		return v.(geometry.Vertices), nil
	}

	vs, err := geometry.Derive(db.genesisVertices, addr.Path())
	if err != nil {
		if errors.Is(err, geometry.ErrDegenerate) {
			return geometry.Vertices{}, fmt.Errorf("%w: %s", ErrDegenerateGeometry, addr)
		}
		return geometry.Vertices{}, err
	}

	db.vertexLRU.Add(key, vs)
	return vs, nil
}
