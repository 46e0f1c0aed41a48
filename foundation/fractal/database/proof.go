package database

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/triadchain/triadchain/foundation/fractal/pow"
)

// SearchProof performs the work of finding a nonce that solves the geometric
// puzzle for one transaction against the current chain tip. The resulting
// proof is only valid for blocks built on prevBlockHash, so a tip change
// means the search has to start over.
func SearchProof(ctx context.Context, tx SignedTx, prevBlockHash string, blockTarget *uint256.Int, ev func(v string, args ...any)) (BlockTx, error) {
	ev("database: SearchProof: MINING: started: tx[%s]", tx)
	defer ev("database: SearchProof: MINING: completed: tx[%s]", tx)

	target := pow.DepthTarget(blockTarget, tx.Address.Depth())

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return BlockTx{}, err
	}
	nonce := nBig.Uint64()

	addr := tx.Address.String()
	op := string(tx.Op)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: SearchProof: MINING: tx[%s]: attempts[%d]", tx, attempts)
		}

		if ctx.Err() != nil {
			ev("database: SearchProof: MINING: CANCELLED: tx[%s]", tx)
			return BlockTx{}, ctx.Err()
		}

		hash := pow.ProofHash(addr, op, prevBlockHash, nonce)
		if !pow.Solved(hash, target) {
			nonce++
			continue
		}

		ev("database: SearchProof: MINING: SOLVED: tx[%s]: attempts[%d]", tx, attempts)

		return NewBlockTx(tx, GeoProof{PrevBlockHash: prevBlockHash, Nonce: nonce}), nil
	}
}
