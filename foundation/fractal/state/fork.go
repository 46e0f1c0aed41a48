package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/pow"
)

// ErrLighterChain is returned when a candidate chain does not carry more
// cumulative work than the local one.
var ErrLighterChain = errors.New("candidate chain is not heavier")

// ChainWork sums the expected work for a sequence of blocks.
func ChainWork(blocks []database.Block) (*big.Int, error) {
	total := big.NewInt(0)

	for _, block := range blocks {
		target, err := pow.ParseTarget(block.Header.Target)
		if err != nil {
			return nil, err
		}
		total.Add(total, pow.Work(target))
	}

	return total, nil
}

// ProcessForkChain takes a complete candidate chain retrieved from a peer
// and switches to it when it carries strictly more cumulative work than the
// local chain. The local triangle state is rebuilt by replaying the
// candidate from genesis. On replay failure the original chain is restored.
// Transactions mined only on the abandoned chain go back to the mempool.
func (s *State) ProcessForkChain(blocks []database.Block) error {
	s.evHandler("state: ProcessForkChain: started: candidate blocks[%d]", len(blocks))
	defer s.evHandler("state: ProcessForkChain: completed")

	candidateWork, err := ChainWork(blocks)
	if err != nil {
		return err
	}

	if candidateWork.Cmp(s.RetrieveChainWork()) <= 0 {
		return fmt.Errorf("%w: candidate[%s] local[%s]", ErrLighterChain, candidateWork, s.RetrieveChainWork())
	}

	// No mining while the chain is being rebuilt.
	done := s.Worker.SignalCancelMining()
	defer done()

	s.mu.Lock()
	s.allowMining = false
	s.mu.Unlock()
	defer s.turnMiningOn()

	// Keep the local blocks so the chain can be restored if the candidate
	// turns out to be invalid, and so abandoned transactions can be
	// reclaimed.
	local := s.QueryBlocksByNumber(1, s.db.LatestBlock().Header.Number)

	if err := s.replaceChain(blocks); err != nil {
		s.evHandler("state: ProcessForkChain: candidate replay failed: %s: restoring local chain", err)

		if restoreErr := s.replaceChain(local); restoreErr != nil {
			return fmt.Errorf("restoring local chain: %w", restoreErr)
		}

		return err
	}

	s.reclaimTransactions(local, blocks)

	return nil
}

// =============================================================================

// replaceChain resets the database back to genesis and replays the given
// blocks through full validation.
func (s *State) replaceChain(blocks []database.Block) error {
	if err := s.db.Reset(); err != nil {
		return err
	}

	s.mu.Lock()
	s.chainWork = big.NewInt(0)
	s.mu.Unlock()

	for _, block := range blocks {
		if err := s.validateUpdateDatabase(block); err != nil {
			return err
		}
	}

	return nil
}

// reclaimTransactions returns transactions that were mined only on the
// abandoned chain to the mempool so they get another chance to mine. Their
// old proofs reference abandoned blocks and will be re-solved.
func (s *State) reclaimTransactions(abandoned []database.Block, adopted []database.Block) {
	mined := make(map[string]bool)
	for _, block := range adopted {
		for _, tx := range block.Trans.Values() {
			mined[tx.ID.String()] = true
		}
	}

	for _, block := range abandoned {
		for _, tx := range block.Trans.Values() {
			if mined[tx.ID.String()] {
				continue
			}

			// The adopted chain may have left the triangle in a state that
			// no longer accepts this operation.
			if err := s.validateTransaction(tx.SignedTx); err != nil {
				s.evHandler("state: reclaimTransactions: tx[%s] dropped: %s", tx, err)
				continue
			}

			s.evHandler("state: reclaimTransactions: tx[%s] back to mempool", tx)
			s.mempool.Upsert(database.NewBlockTx(tx.SignedTx, database.GeoProof{}))
		}
	}
}
