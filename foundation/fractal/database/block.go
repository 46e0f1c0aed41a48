package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/triadchain/triadchain/foundation/fractal/merkle"
	"github.com/triadchain/triadchain/foundation/fractal/pow"
	"github.com/triadchain/triadchain/foundation/fractal/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Block number in the chain.
	PrevBlockHash string    `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64    `json:"timestamp"`       // Time the block was mined.
	BeneficiaryID AccountID `json:"beneficiary"`     // The account that mined this block.
	Target        string    `json:"target"`          // 256-bit proof-of-work target the block must solve.
	Nonce         uint64    `json:"nonce"`           // Value identified to solve the hash puzzle.
	TransRoot     string    `json:"trans_root"`      // Merkle tree root hash for the transactions in this block.
}

// Block represents a group of triangle transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[BlockTx]
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	BeneficiaryID AccountID
	Target        string
	PrevBlock     Block
	Trans         []BlockTx
	EvHandler     func(v string, args ...any)
}

// POW constructs a new block and performs the work to find a nonce that
// solves the cryptographic puzzle for the block's target.
func POW(ctx context.Context, args POWArgs) (Block, error) {

	// When mining the first block, the previous block's hash will be zero.
	prevBlockHash := signature.ZeroHash
	if args.PrevBlock.Header.Number > 0 {
		prevBlockHash = args.PrevBlock.Hash()
	}

	// The root of this merkle tree commits the block header to the full
	// transaction set.
	tree, err := merkle.NewTree(args.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			Number:        args.PrevBlock.Header.Number + 1,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			BeneficiaryID: args.BeneficiaryID,
			Target:        args.Target,
			Nonce:         0, // Will be identified by the POW algorithm.
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	if err := nb.performPOW(ctx, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: performPOW: MINING: started")
	defer ev("database: performPOW: MINING: completed")

	target, err := pow.ParseTarget(b.Header.Target)
	if err != nil {
		return err
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found by us or another node.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	b.Header.Nonce = nBig.Uint64()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.Hash()
		if !isHashSolved(hash, target) {
			b.Header.Nonce++
			continue
		}

		ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the block.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	// CORE NOTE: Only the header is hashed, not the whole block. The header
	// commits to the transactions through the merkle root, so the chain can
	// be cryptographically checked with block headers alone.

	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain. The triangle state rules are checked separately when the block
// is applied to the database.
func (b Block) ValidateBlock(previousBlock Block, chainID uint16, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: blk[%d]: check: block is structurally sound", b.Header.Number)

	if b.Trans == nil || len(b.Trans.Values()) == 0 {
		return fmt.Errorf("%w: block has no transactions", ErrMalformed)
	}

	target, err := pow.ParseTarget(b.Header.Target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: chain is not forked", b.Header.Number)

	// The node who sent this block has a chain that is two or more blocks
	// ahead of ours. This means there has been a fork and we are on the
	// wrong side.
	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number >= (nextNumber + 2) {
		return ErrChainForked
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrMalformed, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: parent hash matches parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrMalformed, b.Header.PrevBlockHash, previousBlock.Hash())
	}

	if previousBlock.Header.TimeStamp > 0 {
		evHandler("database: ValidateBlock: blk[%d]: check: timestamp is greater than parent", b.Header.Number)

		parentTime := time.Unix(int64(previousBlock.Header.TimeStamp), 0)
		blockTime := time.Unix(int64(b.Header.TimeStamp), 0)
		if !blockTime.After(parentTime) {
			return fmt.Errorf("%w: block timestamp is before parent block, parent %s, block %s", ErrMalformed, parentTime, blockTime)
		}
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !isHashSolved(hash, target) {
		return fmt.Errorf("%w: block hash %s above target", ErrInsufficientPOW, hash)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: merkle root matches transactions", b.Header.Number)

	if b.Header.TransRoot != b.Trans.RootHex() {
		return fmt.Errorf("%w: merkle root does not match transactions, got %s, exp %s", ErrMalformed, b.Trans.RootHex(), b.Header.TransRoot)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: transaction signatures and geo proofs", b.Header.Number)

	for _, tx := range b.Trans.Values() {
		if err := tx.Validate(chainID); err != nil {
			return err
		}

		if _, err := tx.FromAccount(); err != nil {
			return err
		}

		if err := tx.VerifyProof(b.Header.PrevBlockHash, target); err != nil {
			return err
		}
	}

	return nil
}

// Score returns the proof-quality score for this block: the normalized
// margin between the achieved header hash and the target. The transport
// layer aggregates this for peer reputation.
func (b Block) Score() float64 {
	target, err := pow.ParseTarget(b.Header.Target)
	if err != nil {
		return 0
	}

	hash, err := hashToBytes(b.Hash())
	if err != nil {
		return 0
	}

	return pow.Score(hash, target)
}

// isHashSolved checks the hash is numerically below the target.
func isHashSolved(hash string, target *uint256.Int) bool {
	h, err := hashToBytes(hash)
	if err != nil {
		return false
	}

	return pow.Solved(h, target)
}

// hashToBytes converts the 0x prefixed hex hash into its 32 byte form.
func hashToBytes(hash string) ([32]byte, error) {
	var b [32]byte

	if len(hash) != 66 || !has0xPrefix(AccountID(hash)) {
		return b, fmt.Errorf("%w: invalid hash %q", ErrMalformed, hash)
	}

	decoded, err := hex.DecodeString(hash[2:])
	if err != nil {
		return b, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	copy(b[:], decoded)
	return b, nil
}

// =============================================================================

// BlockData represents what is serialized to storage and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans.Values(),
	}

	return blockData
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	return nb, nil
}
