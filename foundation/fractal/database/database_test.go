package database_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/database/storage/memory"
	"github.com/triadchain/triadchain/foundation/fractal/genesis"
	"github.com/triadchain/triadchain/foundation/fractal/merkle"
	"github.com/triadchain/triadchain/foundation/fractal/pow"
	"github.com/triadchain/triadchain/foundation/fractal/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const signerHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// easyTarget is solved by essentially any hash so tests never grind.
const easyTarget = "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

var noopEv = func(v string, args ...any) {}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		ChainID:       1,
		TransPerBlock: 8,
		BaseTarget:    easyTarget,
		EpochBlocks:   32,
		BlockInterval: 10,
		MaxDepth:      20,
		Vertices: [3][2]string{
			{"0", "0"},
			{"1", "0"},
			{"0.5", "0.866025403784438647"},
		},
	}
}

func newTestDB(t *testing.T, gen genesis.Genesis) (*database.Database, database.Storage) {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open block storage: %v", failed, err)
	}

	store, err := memory.NewTriangles()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the triangle store: %v", failed, err)
	}

	db, err := database.New(gen, store, strg, noopEv)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
	}

	return db, strg
}

func signerKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := crypto.HexToECDSA(signerHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the signer key: %v", failed, err)
	}

	return key
}

func signTx(t *testing.T, key *ecdsa.PrivateKey, addr string, op database.OpType) database.SignedTx {
	t.Helper()

	address, err := database.ToAddress(addr)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse address %q: %v", failed, addr, err)
	}

	tx, err := database.NewTx(1, address, op)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(key)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return signedTx
}

// makeBlock builds a fully valid next block over the previous one: each
// transaction gets its geometric proof solved against the previous block
// hash and the header uses a deterministic timestamp one second after the
// parent.
func makeBlock(t *testing.T, prev database.Block, txs []database.SignedTx) database.Block {
	t.Helper()

	target, err := pow.ParseTarget(easyTarget)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the target: %v", failed, err)
	}

	prevBlockHash := signature.ZeroHash
	if prev.Header.Number > 0 {
		prevBlockHash = prev.Hash()
	}

	blockTxs := make([]database.BlockTx, 0, len(txs))
	for _, tx := range txs {
		blockTx, err := database.SearchProof(context.Background(), tx, prevBlockHash, target, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to solve the geometric proof: %v", failed, err)
		}
		blockTxs = append(blockTxs, blockTx)
	}

	tree, err := merkle.NewTree(blockTxs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the merkle tree: %v", failed, err)
	}

	block := database.Block{
		Header: database.BlockHeader{
			Number:        prev.Header.Number + 1,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     prev.Header.TimeStamp + 1,
			BeneficiaryID: "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8",
			Target:        easyTarget,
			Nonce:         0,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	return block
}

// =============================================================================

func Test_Subdivide(t *testing.T) {
	t.Log("Given the need to validate subdividing a triangle.")
	{
		db, _ := newTestDB(t, testGenesis())
		key := signerKey(t)
		issuer := database.PublicKeyToAccountID(key.PublicKey)

		block := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})

		if err := db.ApplyBlock(block); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to apply the block.", success)

		root, err := db.GetTriangle(database.Address{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the genesis record: %v", failed, err)
		}
		if root.State != database.StateSubdivided {
			t.Fatalf("\t%s\tShould mark the genesis triangle subdivided: got %s", failed, root.State)
		}
		t.Logf("\t%s\tShould mark the genesis triangle subdivided.", success)

		for _, addr := range []string{"0", "1", "2"} {
			address, _ := database.ToAddress(addr)
			child, err := db.GetTriangle(address)
			if err != nil {
				t.Fatalf("\t%s\tShould find child %s: %v", failed, addr, err)
			}
			if child.State != database.StateActive {
				t.Fatalf("\t%s\tShould create child %s active: got %s", failed, addr, child.State)
			}
			if child.Owner != issuer {
				t.Fatalf("\t%s\tShould credit child %s to the issuer.", failed, addr)
			}
			if child.CreatedInBlock != block.Hash() {
				t.Fatalf("\t%s\tShould record the creating block for child %s.", failed, addr)
			}
		}
		t.Logf("\t%s\tShould create three active children owned by the issuer.", success)

		if db.LatestBlock().Header.Number != 1 {
			t.Fatalf("\t%s\tShould advance the latest block to one.", failed)
		}
		t.Logf("\t%s\tShould advance the latest block to one.", success)
	}
}

func Test_TerminalStates(t *testing.T) {
	t.Log("Given the need to validate terminal triangles reject operations.")
	{
		db, _ := newTestDB(t, testGenesis())
		key := signerKey(t)

		b1 := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the first block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to apply the first block.", success)

		b2 := makeBlock(t, b1, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b2); !errors.Is(err, database.ErrAlreadyFinalized) {
			t.Fatalf("\t%s\tShould reject subdividing a subdivided triangle: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject subdividing a subdivided triangle.", success)

		b2 = makeBlock(t, b1, []database.SignedTx{
			signTx(t, key, "0", database.OpVoid),
		})
		if err := db.ApplyBlock(b2); err != nil {
			t.Fatalf("\t%s\tShould be able to void an active triangle: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to void an active triangle.", success)

		addr, _ := database.ToAddress("0")
		voided, _ := db.GetTriangle(addr)
		if voided.State != database.StateVoid {
			t.Fatalf("\t%s\tShould record the void state: got %s", failed, voided.State)
		}
		t.Logf("\t%s\tShould record the void state.", success)

		b3 := makeBlock(t, b2, []database.SignedTx{
			signTx(t, key, "0", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b3); !errors.Is(err, database.ErrAlreadyFinalized) {
			t.Fatalf("\t%s\tShould reject subdividing a void triangle: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject subdividing a void triangle.", success)

		b3 = makeBlock(t, b2, []database.SignedTx{
			signTx(t, key, "0", database.OpVoid),
		})
		if err := db.ApplyBlock(b3); !errors.Is(err, database.ErrAlreadyFinalized) {
			t.Fatalf("\t%s\tShould reject voiding a void triangle: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject voiding a void triangle.", success)
	}
}

func Test_UnknownTriangle(t *testing.T) {
	t.Log("Given the need to validate operations on unknown triangles.")
	{
		db, _ := newTestDB(t, testGenesis())
		key := signerKey(t)

		block := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "0", database.OpVoid),
		})

		if err := db.ApplyBlock(block); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould reject an operation on a nonexistent triangle: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an operation on a nonexistent triangle.", success)
	}
}

func Test_IntraBlockDoubleSpend(t *testing.T) {
	t.Log("Given the need to validate one mutation per triangle per block.")
	{
		db, _ := newTestDB(t, testGenesis())
		key := signerKey(t)

		block := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
			signTx(t, key, "genesis", database.OpSubdivide),
		})

		if err := db.ApplyBlock(block); !errors.Is(err, database.ErrDoubleSpend) {
			t.Fatalf("\t%s\tShould reject touching the same address twice: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject touching the same address twice.", success)

		// A child created by a subdivision in this block counts as touched.
		block = makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
			signTx(t, key, "0", database.OpVoid),
		})

		if err := db.ApplyBlock(block); !errors.Is(err, database.ErrDoubleSpend) {
			t.Fatalf("\t%s\tShould reject voiding a child created in the same block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject voiding a child created in the same block.", success)

		// Nothing from the failed blocks may have leaked into the store.
		root, err := db.GetTriangle(database.Address{})
		if err != nil || root.State != database.StateGenesis {
			t.Fatalf("\t%s\tShould leave the triangle state untouched on failure.", failed)
		}
		t.Logf("\t%s\tShould leave the triangle state untouched on failure.", success)
	}
}

func Test_MaxDepth(t *testing.T) {
	t.Log("Given the need to validate the maximum subdivision depth.")
	{
		gen := testGenesis()
		gen.MaxDepth = 1

		db, _ := newTestDB(t, gen)
		key := signerKey(t)

		b1 := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to subdivide to the maximum depth: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to subdivide to the maximum depth.", success)

		b2 := makeBlock(t, b1, []database.SignedTx{
			signTx(t, key, "0", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b2); !errors.Is(err, database.ErrDegenerateGeometry) {
			t.Fatalf("\t%s\tShould reject subdividing past the maximum depth: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject subdividing past the maximum depth.", success)
	}
}

func Test_Stats(t *testing.T) {
	t.Log("Given the need to validate fractal accounting.")
	{
		db, _ := newTestDB(t, testGenesis())
		key := signerKey(t)

		b1 := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the first block: %v", failed, err)
		}

		b2 := makeBlock(t, b1, []database.SignedTx{
			signTx(t, key, "0", database.OpVoid),
		})
		if err := db.ApplyBlock(b2); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the second block: %v", failed, err)
		}

		stats, err := db.Stats()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the stats: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to compute the stats.", success)

		if stats.Active != 2 || stats.Subdivided != 1 || stats.Void != 1 {
			t.Fatalf("\t%s\tShould count 2 active, 1 subdivided, 1 void: got %+v", failed, stats)
		}
		t.Logf("\t%s\tShould count 2 active, 1 subdivided, 1 void.", success)

		if stats.MaxDepth != 1 {
			t.Fatalf("\t%s\tShould report maximum depth one: got %d", failed, stats.MaxDepth)
		}
		t.Logf("\t%s\tShould report maximum depth one.", success)

		if !stats.ActiveArea.GreaterThan(decimal.Zero) {
			t.Fatalf("\t%s\tShould report a positive active area.", failed)
		}
		t.Logf("\t%s\tShould report a positive active area.", success)
	}
}

func Test_Replay(t *testing.T) {
	t.Log("Given the need to validate rebuilding state from the block log.")
	{
		gen := testGenesis()
		db, strg := newTestDB(t, gen)
		key := signerKey(t)

		b1 := makeBlock(t, database.Block{}, []database.SignedTx{
			signTx(t, key, "genesis", database.OpSubdivide),
		})
		if err := db.ApplyBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the first block: %v", failed, err)
		}

		b2 := makeBlock(t, b1, []database.SignedTx{
			signTx(t, key, "0", database.OpVoid),
		})
		if err := db.ApplyBlock(b2); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the second block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to apply two blocks.", success)

		// Reopen against the same block log with a fresh triangle store.
		store, err := memory.NewTriangles()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open a fresh triangle store: %v", failed, err)
		}

		db2, err := database.New(gen, store, strg, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the block log: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to replay the block log.", success)

		if db2.LatestBlock().Hash() != db.LatestBlock().Hash() {
			t.Fatalf("\t%s\tShould land on the same latest block.", failed)
		}
		t.Logf("\t%s\tShould land on the same latest block.", success)

		orig := db.CopyTriangles()
		replayed := db2.CopyTriangles()
		if len(orig) != len(replayed) {
			t.Fatalf("\t%s\tShould rebuild the same number of records: got %d, exp %d", failed, len(replayed), len(orig))
		}
		for k, rec := range orig {
			if replayed[k].State != rec.State {
				t.Fatalf("\t%s\tShould rebuild the state of %s.", failed, k)
			}
		}
		t.Logf("\t%s\tShould rebuild identical triangle records.", success)
	}
}
