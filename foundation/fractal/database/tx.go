package database

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/triadchain/triadchain/foundation/fractal/pow"
	"github.com/triadchain/triadchain/foundation/fractal/signature"
)

// OpType represents the operations that can be performed on a triangle.
type OpType string

// The set of triangle operations.
const (
	OpSubdivide OpType = "subdivide"
	OpVoid      OpType = "void"
)

// IsValid reports whether the value is a known operation.
func (op OpType) IsValid() bool {
	return op == OpSubdivide || op == OpVoid
}

// =============================================================================

// Tx is the issuer's intent to mutate one triangle. The uuid is the signed
// uniqueness context that prevents one signature from being replayed as a
// second transaction.
type Tx struct {
	ChainID uint16    `json:"chain_id"`
	ID      uuid.UUID `json:"id"`
	Address Address   `json:"address"`
	Op      OpType    `json:"op"`
}

// NewTx constructs a new transaction for the specified triangle operation.
func NewTx(chainID uint16, address Address, op OpType) (Tx, error) {
	if !op.IsValid() {
		return Tx{}, fmt.Errorf("%w: unknown operation %q", ErrMalformed, op)
	}

	tx := Tx{
		ChainID: chainID,
		ID:      uuid.New(),
		Address: address,
		Op:      op,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction, used to verify the
// transaction was issued by the holder of the key it claims.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Validate checks the transaction is well formed for this chain and carries
// a structurally valid signature.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("%w: wrong chain id, got %d, exp %d", ErrMalformed, tx.ChainID, chainID)
	}

	if !tx.Op.IsValid() {
		return fmt.Errorf("%w: unknown operation %q", ErrMalformed, tx.Op)
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return nil
}

// FromAccount extracts the account that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return AccountID(address), nil
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%s", tx.Address, tx.Op)
}

// =============================================================================

// GeoProof carries the solution to the geometric proof-of-work puzzle for
// one transaction. The proof is bound to the chain tip the miner built on.
type GeoProof struct {
	PrevBlockHash string `json:"prev_block_hash"`
	Nonce         uint64 `json:"nonce"`
}

// BlockTx is a signed transaction together with the geometric proof the
// miner found for it. This is what gets embedded into blocks.
type BlockTx struct {
	SignedTx
	Proof GeoProof `json:"proof"`
}

// NewBlockTx constructs a block transaction from a signed intent and a
// solved geometric proof.
func NewBlockTx(signedTx SignedTx, proof GeoProof) BlockTx {
	return BlockTx{
		SignedTx: signedTx,
		Proof:    proof,
	}
}

// VerifyProof recomputes the geometric proof hash from the committed fields
// and checks it solves the depth-weighted target. The proof must reference
// the block's parent or it is rejected as belonging to another fork.
func (tx BlockTx) VerifyProof(prevBlockHash string, blockTarget *uint256.Int) error {
	if tx.Proof.PrevBlockHash != prevBlockHash {
		return fmt.Errorf("%w: proof bound to %s, block parent %s", ErrInsufficientPOW, tx.Proof.PrevBlockHash, prevBlockHash)
	}

	target := pow.DepthTarget(blockTarget, tx.Address.Depth())
	hash := pow.ProofHash(tx.Address.String(), string(tx.Op), tx.Proof.PrevBlockHash, tx.Proof.Nonce)

	if !pow.Solved(hash, target) {
		return fmt.Errorf("%w: hash above depth target for %s", ErrInsufficientPOW, tx.Address)
	}

	return nil
}

// Hash implements the merkle Hashable interface for the transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	str := signature.Hash(tx)

	// Remove the 0x prefix before decoding.
	return []byte(str[2:]), nil
}

// Equals implements the merkle Hashable interface for the transaction. Two
// transactions are the same when they carry the same signed intent and the
// same proof.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	txSig := signature.ToSignatureBytes(tx.V, tx.R, tx.S)
	otherTxSig := signature.ToSignatureBytes(otherTx.V, otherTx.R, otherTx.S)

	return tx.ID == otherTx.ID && tx.Proof.Nonce == otherTx.Proof.Nonce && bytesEqual(txSig, otherTxSig)
}

// =============================================================================

func bytesEqual(a []byte, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
