// Package mempool maintains the pool of pending transactions. The pool is
// keyed by triangle address, so at most one pending transaction exists per
// triangle and a later submission for the same address replaces the earlier
// one.
package mempool

import (
	"sync"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/mempool/selector"
)

// Mempool represents a cache of transactions keyed by triangle address.
type Mempool struct {
	pool     map[string]database.BlockTx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyShallow)
}

// NewWithStrategy constructs a new mempool with the specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]database.BlockTx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.Address.String()] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.Address.String())

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.BlockTx)
}

// PickBest uses the configured sort strategy to return the next set of
// transactions for the next block. Passing -1 returns them all.
func (mp *Mempool) PickBest(howMany int) []database.BlockTx {

	// Group the transactions by issuing account. Transactions whose
	// signature can't be recovered stay out of blocks.
	m := make(map[database.AccountID][]database.BlockTx)
	mp.mu.RLock()
	{
		if howMany == -1 {
			howMany = len(mp.pool)
		}

		for _, tx := range mp.pool {
			account, err := tx.FromAccount()
			if err != nil {
				continue
			}
			m[account] = append(m[account], tx)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(m, howMany)
}
