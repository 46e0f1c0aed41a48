package database

import (
	"errors"

	"github.com/triadchain/triadchain/foundation/fractal/geometry"
)

// ErrChainForked is returned from validation if another node's chain is two
// or more blocks ahead of ours.
var ErrChainForked = errors.New("blockchain forked, start resync")

// Validation failures during block application. All are local and non-fatal:
// the block is rejected and the node keeps operating on its prior chain.
var (
	ErrNotFound           = errors.New("triangle not found")
	ErrInvalidState       = errors.New("triangle state does not permit the operation")
	ErrAlreadyFinalized   = errors.New("triangle already finalized")
	ErrDegenerateGeometry = geometry.ErrDegenerate
	ErrInsufficientPOW    = errors.New("insufficient proof of work")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrMalformed          = errors.New("malformed block data")
	ErrDoubleSpend        = errors.New("triangle mutated twice within one block")
)
