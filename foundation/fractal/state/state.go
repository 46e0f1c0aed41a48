// Package state is the core API for the fractal chain and implements all the
// business rules and processing.
package state

import (
	"math/big"
	"sync"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/genesis"
	"github.com/triadchain/triadchain/foundation/fractal/mempool"
	"github.com/triadchain/triadchain/foundation/fractal/peer"
	"github.com/triadchain/triadchain/foundation/fractal/pow"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(blockTx database.BlockTx)
}

// =============================================================================

// Config represents the configuration required to start
// the chain node.
type Config struct {
	BeneficiaryID  database.AccountID
	Host           string
	Genesis        genesis.Genesis
	Storage        database.Storage
	TriangleStore  database.TriangleStore
	SelectStrategy string
	KnownPeers     *peer.PeerSet
	EvHandler      EventHandler
}

// State manages the fractal chain database.
type State struct {
	mu          sync.RWMutex
	resyncWG    sync.WaitGroup
	allowMining bool
	chainWork   *big.Int

	beneficiaryID database.AccountID
	host          string
	evHandler     EventHandler

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database

	Worker Worker
}

// New constructs a new state for chain data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the database for the triangle state, replaying any blocks
	// already in storage.
	db, err := database.New(cfg.Genesis, cfg.TriangleStore, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified sort strategy.
	mpool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		evHandler:     ev,
		allowMining:   true,

		knownPeers: cfg.KnownPeers,
		genesis:    cfg.Genesis,
		mempool:    mpool,
		db:         db,
	}

	// Account for the work already in storage so fork comparisons see the
	// replayed chain.
	chainWork, err := state.recomputeChainWork()
	if err != nil {
		return nil, err
	}
	state.chainWork = chainWork

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all chain writing activity.
	s.Worker.Shutdown()

	// Wait for any resync to finish.
	s.resyncWG.Wait()

	return nil
}

// =============================================================================

// IsMiningAllowed identifies if mining is on.
func (s *State) IsMiningAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allowMining
}

// turnMiningOn sets the allowMining flag back to true.
func (s *State) turnMiningOn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowMining = true
}

// recomputeChainWork walks the stored blocks and sums the expected work of
// each block's target.
func (s *State) recomputeChainWork() (*big.Int, error) {
	total := big.NewInt(0)

	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		target, err := pow.ParseTarget(block.Header.Target)
		if err != nil {
			return nil, err
		}

		total.Add(total, pow.Work(target))
	}

	return total, nil
}
