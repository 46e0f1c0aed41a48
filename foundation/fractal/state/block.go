package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/pow"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. Each selected transaction first needs
// its own geometric proof bound to the current tip, then the block header
// puzzle is solved over the whole batch.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// Pick the best transactions from the mempool.
	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	targetStr, err := s.expectedNextTarget()
	if err != nil {
		return database.Block{}, err
	}

	target, err := pow.ParseTarget(targetStr)
	if err != nil {
		return database.Block{}, err
	}

	prevBlock := s.db.LatestBlock()
	prevBlockHash := prevBlock.Hash()

	s.evHandler("state: MineNewBlock: MINING: solve per-transaction proofs: txs[%d]", len(trans))

	// Solve the geometric puzzle for every transaction against the current
	// tip. A tip change cancels this via ctx and the proofs are discarded.
	blockTrans := make([]database.BlockTx, 0, len(trans))
	for _, tx := range trans {
		blockTx, err := database.SearchProof(ctx, tx.SignedTx, prevBlockHash, target, s.evHandler)
		if err != nil {
			return database.Block{}, err
		}
		blockTrans = append(blockTrans, blockTx)
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		BeneficiaryID: s.beneficiaryID,
		Target:        targetStr,
		PrevBlock:     prevBlock,
		Trans:         blockTrans,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the chain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Trans.Values()))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash())

	// Validate the block and then update the chain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
		done()
	}()

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates it against the
// consensus rules. If the block passes, then the state of the node is
// updated including adding the block to disk.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	// The declared target is consensus: a block carrying anything but the
	// scheduled target for its height is rejected regardless of its hash.
	expected, err := s.expectedNextTarget()
	if err != nil {
		return err
	}
	if block.Header.Target != expected {
		return fmt.Errorf("target mismatch, got %s, exp %s", block.Header.Target, expected)
	}

	if err := block.ValidateBlock(s.db.LatestBlock(), s.genesis.ChainID, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: apply block to triangle state")

	// Apply the transactions to the triangle state and write the block to
	// storage. This is all or nothing.
	if err := s.db.ApplyBlock(block); err != nil {
		return err
	}

	target, err := pow.ParseTarget(block.Header.Target)
	if err != nil {
		return err
	}
	s.chainWork.Add(s.chainWork, pow.Work(target))

	s.evHandler("state: validateUpdateDatabase: remove transactions from mempool")

	for _, tx := range block.Trans.Values() {
		s.evHandler("state: validateUpdateDatabase: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// expectedNextTarget computes the scheduled proof-of-work target for the
// next block. The target carries over within an epoch and is retargeted,
// clamped, at each epoch boundary from the observed block times.
func (s *State) expectedNextTarget() (string, error) {
	latest := s.db.LatestBlock()
	next := latest.Header.Number + 1

	if next == 1 {
		return s.genesis.BaseTarget, nil
	}

	epoch := uint64(s.genesis.EpochBlocks)
	if epoch == 0 || (next-1)%epoch != 0 {
		return latest.Header.Target, nil
	}

	prevTarget, err := pow.ParseTarget(latest.Header.Target)
	if err != nil {
		return "", err
	}

	// First epoch has no block before block 1 to measure from, so only
	// epoch-1 intervals are observable.
	startNum := next - 1 - epoch
	intervals := epoch
	if startNum == 0 {
		startNum = 1
		intervals = epoch - 1
	}

	startBlock, err := s.db.GetBlock(startNum)
	if err != nil {
		return "", err
	}

	observed := time.Duration(latest.Header.TimeStamp-startBlock.Header.TimeStamp) * time.Second
	expected := time.Duration(intervals) * time.Duration(s.genesis.BlockInterval) * time.Second

	return pow.FormatTarget(pow.Retarget(prevTarget, observed, expected)), nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	blockTransJSON, err := json.Marshal(block.Trans.Values())
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"score":%.6f,"header":%s,"trans":%s}`, block.Hash(), block.Score(), string(blockHeaderJSON), string(blockTransJSON))
}
