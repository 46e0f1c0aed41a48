// Package geometry implements the fixed-point kernel for deriving triangle
// vertices in the Sierpinski fractal. Every node must compute bit-identical
// coordinates for the same address, so all arithmetic is exact decimal with a
// fixed scale and banker's rounding. No floating point is used anywhere.
package geometry

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal digits kept after every midpoint operation.
const Scale = 18

// ErrDegenerate is returned when derived vertices collapse below the area
// epsilon and can no longer represent a valid triangle.
var ErrDegenerate = errors.New("degenerate geometry")

var (
	half = decimal.New(5, -1)

	// epsilon is the smallest area considered a valid triangle. Anything at
	// or below this value is a hard consensus rejection.
	epsilon = decimal.New(1, -36)
)

// Point represents a location in 2D space with exact decimal coordinates.
type Point struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
}

// NewPoint parses canonical decimal strings into a point.
func NewPoint(x string, y string) (Point, error) {
	dx, err := decimal.NewFromString(x)
	if err != nil {
		return Point{}, fmt.Errorf("parse x coordinate: %w", err)
	}

	dy, err := decimal.NewFromString(y)
	if err != nil {
		return Point{}, fmt.Errorf("parse y coordinate: %w", err)
	}

	return Point{X: dx, Y: dy}, nil
}

// Midpoint returns the midpoint between two points. The sum is multiplied by
// an exact 0.5 and then rounded half-even at the fixed scale, which is the
// one place rounding can occur in the whole kernel.
func (p Point) Midpoint(q Point) Point {
	return Point{
		X: p.X.Add(q.X).Mul(half).RoundBank(Scale),
		Y: p.Y.Add(q.Y).Mul(half).RoundBank(Scale),
	}
}

// Equal reports whether two points share the same exact coordinates.
func (p Point) Equal(q Point) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

// String implements the fmt.Stringer interface.
func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}

// =============================================================================

// Vertices represents the three corners of a triangle in a fixed order.
type Vertices [3]Point

// Area returns the exact area of the triangle using the cross product
// formula. Addition, subtraction and multiplication of decimals are exact so
// no rounding is applied.
func Area(v Vertices) decimal.Decimal {
	a, b, c := v[0], v[1], v[2]

	cross := a.X.Mul(b.Y.Sub(c.Y)).
		Add(b.X.Mul(c.Y.Sub(a.Y))).
		Add(c.X.Mul(a.Y.Sub(b.Y)))

	return cross.Abs().Mul(half)
}

// IsDegenerate reports whether the triangle's area is at or below the
// validity epsilon.
func IsDegenerate(v Vertices) bool {
	return Area(v).Cmp(epsilon) <= 0
}

// Centroid returns the center of mass of the triangle. The division by three
// is not exact in decimal so the result is rounded at the fixed scale. The
// centroid is informational only and never feeds back into vertex derivation.
func Centroid(v Vertices) Point {
	three := decimal.New(3, 0)
	return Point{
		X: v[0].X.Add(v[1].X).Add(v[2].X).DivRound(three, Scale),
		Y: v[0].Y.Add(v[1].Y).Add(v[2].Y).DivRound(three, Scale),
	}
}

// Corner derives the vertices of the corner sub-triangle retained by the
// given selector. Selector 0 keeps the first vertex, 1 the second, 2 the
// third. The inverted middle sub-triangle has no selector and cannot be
// derived.
func Corner(v Vertices, selector int) (Vertices, error) {
	a, b, c := v[0], v[1], v[2]

	mAB := a.Midpoint(b)
	mBC := b.Midpoint(c)
	mCA := c.Midpoint(a)

	switch selector {
	case 0:
		return Vertices{a, mAB, mCA}, nil
	case 1:
		return Vertices{mAB, b, mBC}, nil
	case 2:
		return Vertices{mCA, mBC, c}, nil
	}

	return Vertices{}, fmt.Errorf("selector out of range: %d", selector)
}

// Derive walks an address path from the genesis vertices and returns the
// vertices for the final triangle. A pure function: two calls with the same
// inputs yield bit-identical output on every node.
func Derive(genesis Vertices, path []uint8) (Vertices, error) {
	if IsDegenerate(genesis) {
		return Vertices{}, fmt.Errorf("genesis vertices: %w", ErrDegenerate)
	}

	v := genesis
	for i, sel := range path {
		next, err := Corner(v, int(sel))
		if err != nil {
			return Vertices{}, fmt.Errorf("step %d: %w", i, err)
		}
		v = next
	}

	if IsDegenerate(v) {
		return Vertices{}, fmt.Errorf("depth %d: %w", len(path), ErrDegenerate)
	}

	return v, nil
}
