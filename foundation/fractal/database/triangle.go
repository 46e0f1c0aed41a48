package database

import "fmt"

// State represents where a triangle is in its lifecycle. Transitions are
// monotonic: Subdivided and Void are terminal.
type State string

// The set of triangle states.
const (
	StateGenesis    State = "genesis"
	StateActive     State = "active"
	StateSubdivided State = "subdivided"
	StateVoid       State = "void"
)

// CanSubdivide reports whether a triangle in this state may be subdivided.
// The genesis triangle subdivides directly, which is its implicit transition
// through Active.
func (s State) CanSubdivide() bool {
	return s == StateGenesis || s == StateActive
}

// IsTerminal reports whether the state permits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateSubdivided || s == StateVoid
}

// IsValid reports whether the value is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateGenesis, StateActive, StateSubdivided, StateVoid:
		return true
	}
	return false
}

// =============================================================================

// Triangle represents the chain's record for one position in the fractal.
// Vertices are never stored; they are recomputed on demand from the genesis
// vertices and the address.
type Triangle struct {
	Address        Address   `json:"address"`
	State          State     `json:"state"`
	Owner          AccountID `json:"owner"`
	CreatedInBlock string    `json:"created_in_block"`
}

// Depth returns the subdivision depth of the triangle.
func (t Triangle) Depth() int {
	return t.Address.Depth()
}

// String implements the fmt.Stringer interface.
func (t Triangle) String() string {
	return fmt.Sprintf("%s[%s]", t.Address, t.State)
}
