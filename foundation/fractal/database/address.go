package database

import (
	"fmt"
	"strconv"
	"strings"
)

// NumChildren is the number of addressable children a subdivision creates.
// The inverted middle sub-triangle is implicit and never addressable.
const NumChildren = 3

// GenesisAddressText is the canonical text form of the empty address.
const GenesisAddressText = "genesis"

// Selector identifies which retained corner a child triangle occupies.
type Selector uint8

// Address identifies a triangle by the ordered sequence of corner selectors
// walked from the genesis triangle. The empty address is the genesis
// triangle itself.
type Address []Selector

// ToAddress parses the canonical text form of an address, for example
// "0.1.2". The word "genesis" and the empty string both mean the root.
func ToAddress(s string) (Address, error) {
	if s == "" || s == GenesisAddressText {
		return Address{}, nil
	}

	parts := strings.Split(s, ".")
	addr := make(Address, len(parts))

	for i, part := range parts {
		sel, err := strconv.ParseUint(part, 10, 8)
		if err != nil || sel >= NumChildren {
			return nil, fmt.Errorf("%w: invalid address component %q", ErrMalformed, part)
		}
		addr[i] = Selector(sel)
	}

	return addr, nil
}

// String returns the canonical text form of the address.
func (a Address) String() string {
	if len(a) == 0 {
		return GenesisAddressText
	}

	parts := make([]string, len(a))
	for i, sel := range a {
		parts[i] = strconv.Itoa(int(sel))
	}

	return strings.Join(parts, ".")
}

// Depth returns the subdivision depth of the address.
func (a Address) Depth() int {
	return len(a)
}

// IsGenesis reports whether this is the root address.
func (a Address) IsGenesis() bool {
	return len(a) == 0
}

// Parent returns the parent address. The second return is false for the
// genesis address, which has no parent.
func (a Address) Parent() (Address, bool) {
	if len(a) == 0 {
		return nil, false
	}

	parent := make(Address, len(a)-1)
	copy(parent, a[:len(a)-1])
	return parent, true
}

// Child returns the address of the retained-corner child for the selector.
func (a Address) Child(sel Selector) (Address, error) {
	if sel >= NumChildren {
		return nil, fmt.Errorf("%w: selector out of range %d", ErrMalformed, sel)
	}

	child := make(Address, len(a)+1)
	copy(child, a)
	child[len(a)] = sel
	return child, nil
}

// Children returns the three child addresses created by subdividing this
// address.
func (a Address) Children() [NumChildren]Address {
	var children [NumChildren]Address
	for sel := Selector(0); sel < NumChildren; sel++ {
		children[sel], _ = a.Child(sel)
	}
	return children
}

// Siblings returns the other two addresses that share this address's
// parent. The genesis address has no siblings.
func (a Address) Siblings() []Address {
	parent, ok := a.Parent()
	if !ok {
		return nil
	}

	own := a[len(a)-1]
	siblings := make([]Address, 0, NumChildren-1)
	for _, child := range parent.Children() {
		if child[len(child)-1] != own {
			siblings = append(siblings, child)
		}
	}
	return siblings
}

// IsAncestorOf reports whether this address is a strict ancestor of other.
func (a Address) IsAncestorOf(other Address) bool {
	if len(a) >= len(other) {
		return false
	}

	for i, sel := range a {
		if other[i] != sel {
			return false
		}
	}

	return true
}

// IsChildOf reports whether this address is a direct child of parent.
func (a Address) IsChildOf(parent Address) bool {
	return len(a) == len(parent)+1 && parent.IsAncestorOf(a)
}

// CommonAncestor returns the deepest address that is a prefix of both a
// and b.
func CommonAncestor(a Address, b Address) Address {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var i int
	for i = 0; i < n; i++ {
		if a[i] != b[i] {
			break
		}
	}

	ancestor := make(Address, i)
	copy(ancestor, a[:i])
	return ancestor
}

// Path returns the selector sequence in the raw form the geometry kernel
// consumes.
func (a Address) Path() []uint8 {
	path := make([]uint8, len(a))
	for i, sel := range a {
		path[i] = uint8(sel)
	}
	return path
}

// MarshalText implements the encoding.TextMarshaler interface so addresses
// serialize in their canonical text form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *Address) UnmarshalText(data []byte) error {
	addr, err := ToAddress(string(data))
	if err != nil {
		return err
	}

	*a = addr
	return nil
}
