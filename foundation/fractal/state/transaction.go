package state

import (
	"fmt"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

// SubmitWalletTransaction accepts a signed transaction from a wallet for
// inclusion. The geometric proof is the miner's job, so the wallet only
// provides the signed intent.
func (s *State) SubmitWalletTransaction(signedTx database.SignedTx) error {
	s.evHandler("state: SubmitWalletTransaction: started: tx[%s]", signedTx)
	defer s.evHandler("state: SubmitWalletTransaction: completed")

	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	tx := database.NewBlockTx(signedTx, database.GeoProof{})

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return err
	}
	s.evHandler("state: SubmitWalletTransaction: mempool[%d]", n)

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return nil
}

// SubmitNodeTransaction accepts a transaction from a peer node for inclusion.
func (s *State) SubmitNodeTransaction(tx database.BlockTx) error {
	s.evHandler("state: SubmitNodeTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitNodeTransaction: completed")

	if err := s.validateTransaction(tx.SignedTx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// =============================================================================

// validateTransaction takes the signed transaction and validates its
// signature and whether the targeted triangle can currently accept the
// operation. The state check is advisory: the chain may move before the
// transaction mines and block application rechecks everything.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return err
	}

	t, err := s.db.GetTriangle(signedTx.Address)
	if err != nil {
		return err
	}

	switch signedTx.Op {
	case database.OpSubdivide:
		if !t.State.CanSubdivide() {
			return fmt.Errorf("%w: %s is %s", database.ErrInvalidState, t.Address, t.State)
		}
		if t.Depth()+1 > int(s.genesis.MaxDepth) {
			return fmt.Errorf("%w: %s at maximum depth", database.ErrDegenerateGeometry, t.Address)
		}

	case database.OpVoid:
		if t.State != database.StateActive {
			return fmt.Errorf("%w: %s is %s", database.ErrInvalidState, t.Address, t.State)
		}
	}

	return nil
}
