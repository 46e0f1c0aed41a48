// Package pow implements the geometric proof-of-work rules: 256-bit targets,
// the depth-weighted per-transaction puzzle, epoch retargeting, cumulative
// chain work, and the proof-quality score exposed to the transport layer.
package pow

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

// retargetClamp bounds how far a single epoch retarget can move the target
// in either direction.
const retargetClamp = 4

var (
	// maxTarget is 2^256 - 1, the easiest possible target.
	maxTarget = new(uint256.Int).Not(uint256.NewInt(0))

	// pow256 is 2^256, used for the chain work calculation.
	pow256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// MaxTarget returns a copy of the easiest possible target.
func MaxTarget() *uint256.Int {
	return new(uint256.Int).Set(maxTarget)
}

// ParseTarget converts the hex form carried in block headers back into a
// 256-bit target.
func ParseTarget(hexStr string) (*uint256.Int, error) {
	t, err := uint256.FromHex(hexStr)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}

	if t.IsZero() {
		return nil, fmt.Errorf("parse target: zero target")
	}

	return t, nil
}

// FormatTarget converts a target into the canonical hex form carried in
// block headers.
func FormatTarget(t *uint256.Int) string {
	return t.Hex()
}

// =============================================================================

// ProofHash computes the hash for a geometric proof-of-work attempt. The
// puzzle is bound to the triangle address, the operation, and the chain tip
// the miner is building on, so a proof can't be reused for another triangle
// or on another fork. The nonce is encoded big endian fixed width so the
// pre-image is canonical.
func ProofHash(address string, op string, prevBlockHash string, nonce uint64) [32]byte {
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], nonce)

	h := sha256.New()
	h.Write([]byte(address))
	h.Write([]byte{'|'})
	h.Write([]byte(op))
	h.Write([]byte{'|'})
	h.Write([]byte(prevBlockHash))
	h.Write([]byte{'|'})
	h.Write(nb[:])

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash
}

// Solved reports whether the hash is numerically below the target.
func Solved(hash [32]byte, target *uint256.Int) bool {
	return new(uint256.Int).SetBytes(hash[:]).Lt(target)
}

// DepthTarget tightens the block target for a transaction at the specified
// address depth. Each level of depth halves the target, so deeper (smaller)
// triangles require exponentially more expected work and can't be spammed
// cheaply. The result never drops below one.
func DepthTarget(base *uint256.Int, depth int) *uint256.Int {
	t := new(uint256.Int).Set(base)
	t.Rsh(t, uint(depth))
	if t.IsZero() {
		t.SetOne()
	}
	return t
}

// =============================================================================

// Work returns the expected number of hash attempts represented by a target,
// computed as 2^256 / (target + 1). Summing this per block gives the
// cumulative chain work used by fork choice; the ordering is the same as
// summing log2(max/target) but stays in integer arithmetic.
func Work(target *uint256.Int) *big.Int {
	den := new(big.Int).Add(target.ToBig(), big.NewInt(1))
	return new(big.Int).Div(pow256, den)
}

// Retarget computes the next epoch's target from the previous target and the
// observed versus expected epoch duration. The adjustment is clamped so one
// epoch can move the target by at most a factor of four either way.
func Retarget(prev *uint256.Int, observed time.Duration, expected time.Duration) *uint256.Int {
	if expected <= 0 {
		return new(uint256.Int).Set(prev)
	}

	min := expected / retargetClamp
	max := expected * retargetClamp
	if observed < min {
		observed = min
	}
	if observed > max {
		observed = max
	}

	next := new(big.Int).Mul(prev.ToBig(), big.NewInt(int64(observed)))
	next.Div(next, big.NewInt(int64(expected)))

	t, overflow := uint256.FromBig(next)
	if overflow || t.Gt(maxTarget) {
		return MaxTarget()
	}
	if t.IsZero() {
		t.SetOne()
	}

	return t
}

// Score returns the proof-quality score for a solved hash: the normalized
// margin between the achieved hash and the target, in [0, 1]. The score is
// informational output for peer reputation and never feeds back into
// consensus, so float arithmetic is acceptable here.
func Score(hash [32]byte, target *uint256.Int) float64 {
	h := new(uint256.Int).SetBytes(hash[:])
	if !h.Lt(target) {
		return 0
	}

	margin := new(big.Float).SetInt(new(big.Int).Sub(target.ToBig(), h.ToBig()))
	full := new(big.Float).SetInt(target.ToBig())

	score, _ := new(big.Float).Quo(margin, full).Float64()
	return score
}
