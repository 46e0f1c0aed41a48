package mempool_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/mempool"
	"github.com/triadchain/triadchain/foundation/fractal/mempool/selector"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	signer1HexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	signer2HexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func signTx(t *testing.T, hexKey string, addr string, op database.OpType) database.BlockTx {
	t.Helper()

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the key: %v", failed, err)
	}

	return signWithKey(t, key, addr, op)
}

func signWithKey(t *testing.T, key *ecdsa.PrivateKey, addr string, op database.OpType) database.BlockTx {
	t.Helper()

	address, err := database.ToAddress(addr)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the address: %v", failed, err)
	}

	tx, err := database.NewTx(1, address, op)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(key)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return database.NewBlockTx(signedTx, database.GeoProof{})
}

// =============================================================================

func Test_UpsertPerTriangle(t *testing.T) {
	t.Log("Given the need to validate one pending transaction per triangle.")
	{
		mp, err := mempool.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a mempool: %v", failed, err)
		}

		tx1 := signTx(t, signer1HexKey, "0.1", database.OpSubdivide)
		n, err := mp.Upsert(tx1)
		if err != nil || n != 1 {
			t.Fatalf("\t%s\tShould be able to add a transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to add a transaction.", success)

		// A second submission for the same triangle replaces the first,
		// even when issued by a different account.
		tx2 := signTx(t, signer2HexKey, "0.1", database.OpVoid)
		n, err = mp.Upsert(tx2)
		if err != nil || n != 1 {
			t.Fatalf("\t%s\tShould replace the pending transaction: count %d", failed, n)
		}
		t.Logf("\t%s\tShould replace the pending transaction.", success)

		picked := mp.PickBest(-1)
		if len(picked) != 1 || picked[0].Op != database.OpVoid {
			t.Fatalf("\t%s\tShould keep only the latest transaction.", failed)
		}
		t.Logf("\t%s\tShould keep only the latest transaction.", success)

		tx3 := signTx(t, signer1HexKey, "0.2", database.OpSubdivide)
		n, _ = mp.Upsert(tx3)
		if n != 2 {
			t.Fatalf("\t%s\tShould hold transactions for distinct triangles: count %d", failed, n)
		}
		t.Logf("\t%s\tShould hold transactions for distinct triangles.", success)

		if err := mp.Delete(tx2); err != nil {
			t.Fatalf("\t%s\tShould be able to delete a transaction: %v", failed, err)
		}
		if mp.Count() != 1 {
			t.Fatalf("\t%s\tShould have one transaction after delete: %d", failed, mp.Count())
		}
		t.Logf("\t%s\tShould be able to delete a transaction.", success)

		mp.Truncate()
		if mp.Count() != 0 {
			t.Fatalf("\t%s\tShould be empty after truncate: %d", failed, mp.Count())
		}
		t.Logf("\t%s\tShould be empty after truncate.", success)
	}
}

func Test_PickBestShallow(t *testing.T) {
	t.Log("Given the need to validate shallow first selection.")
	{
		mp, err := mempool.NewWithStrategy(selector.StrategyShallow)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a mempool: %v", failed, err)
		}

		key, err := crypto.HexToECDSA(signer1HexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key: %v", failed, err)
		}

		for _, addr := range []string{"0.1.2.0", "0.1", "0", "0.1.2"} {
			if _, err := mp.Upsert(signWithKey(t, key, addr, database.OpSubdivide)); err != nil {
				t.Fatalf("\t%s\tShould be able to add tx for %s: %v", failed, addr, err)
			}
		}

		picked := mp.PickBest(2)
		if len(picked) != 2 {
			t.Fatalf("\t%s\tShould pick exactly two transactions: got %d", failed, len(picked))
		}
		t.Logf("\t%s\tShould pick exactly two transactions.", success)

		if picked[0].Address.Depth() != 1 || picked[1].Address.Depth() != 2 {
			t.Fatalf("\t%s\tShould pick the shallowest addresses first: got %s, %s", failed, picked[0].Address, picked[1].Address)
		}
		t.Logf("\t%s\tShould pick the shallowest addresses first.", success)

		all := mp.PickBest(-1)
		if len(all) != 4 {
			t.Fatalf("\t%s\tShould pick everything with -1: got %d", failed, len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].Address.Depth() < all[i-1].Address.Depth() {
				t.Fatalf("\t%s\tShould order all picks shallow to deep.", failed)
			}
		}
		t.Logf("\t%s\tShould order all picks shallow to deep.", success)
	}
}

func Test_PickBestDeep(t *testing.T) {
	t.Log("Given the need to validate deep first selection.")
	{
		mp, err := mempool.NewWithStrategy(selector.StrategyDeep)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a mempool: %v", failed, err)
		}

		key, err := crypto.HexToECDSA(signer1HexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key: %v", failed, err)
		}

		for _, addr := range []string{"0", "0.1.2", "0.1"} {
			if _, err := mp.Upsert(signWithKey(t, key, addr, database.OpSubdivide)); err != nil {
				t.Fatalf("\t%s\tShould be able to add tx for %s: %v", failed, addr, err)
			}
		}

		picked := mp.PickBest(1)
		if len(picked) != 1 || picked[0].Address.Depth() != 3 {
			t.Fatalf("\t%s\tShould pick the deepest address first.", failed)
		}
		t.Logf("\t%s\tShould pick the deepest address first.", success)
	}
}

func Test_UnknownStrategy(t *testing.T) {
	t.Log("Given the need to validate strategy selection.")
	{
		if _, err := mempool.NewWithStrategy("random"); err == nil {
			t.Fatalf("\t%s\tShould reject an unknown strategy.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown strategy.", success)
	}
}
