package geometry_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/triadchain/triadchain/foundation/fractal/geometry"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func unitTriangle(t *testing.T) geometry.Vertices {
	t.Helper()

	var vs geometry.Vertices
	coords := [3][2]string{
		{"0", "0"},
		{"1", "0"},
		{"0.5", "0.866025403784438647"},
	}

	for i, c := range coords {
		p, err := geometry.NewPoint(c[0], c[1])
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse point %d: %v", failed, i, err)
		}
		vs[i] = p
	}

	return vs
}

// =============================================================================

func Test_MidpointDeterminism(t *testing.T) {
	t.Log("Given the need to validate midpoint derivation is exact and repeatable.")
	{
		a, _ := geometry.NewPoint("0.123456789123456789", "1")
		b, _ := geometry.NewPoint("0.987654321987654321", "3")

		m1 := a.Midpoint(b)
		m2 := a.Midpoint(b)

		if !m1.Equal(m2) {
			t.Fatalf("\t%s\tShould compute the identical midpoint twice.", failed)
		}
		t.Logf("\t%s\tShould compute the identical midpoint twice.", success)

		exp, _ := geometry.NewPoint("0.555555555555555555", "2")
		if !m1.Equal(exp) {
			t.Logf("\t%s\tgot: %s", failed, m1)
			t.Logf("\t%s\texp: %s", failed, exp)
			t.Fatalf("\t%s\tShould round half even at the fixed scale.", failed)
		}
		t.Logf("\t%s\tShould round half even at the fixed scale.", success)
	}
}

func Test_MidpointRounding(t *testing.T) {
	t.Log("Given the need to validate banker's rounding on the last digit.")
	{
		// The exact halves 0.0000000000000000005 and 0.0000000000000000015
		// round to the nearest even digit at scale 18.
		a, _ := geometry.NewPoint("0.000000000000000001", "0.000000000000000003")
		b, _ := geometry.NewPoint("0", "0")

		m := a.Midpoint(b)

		expX := decimal.RequireFromString("0")
		expY := decimal.RequireFromString("0.000000000000000002")

		if !m.X.Equal(expX) {
			t.Fatalf("\t%s\tShould round 5e-19 down to even: got %s", failed, m.X)
		}
		t.Logf("\t%s\tShould round 5e-19 down to even.", success)

		if !m.Y.Equal(expY) {
			t.Fatalf("\t%s\tShould round 15e-19 up to even: got %s", failed, m.Y)
		}
		t.Logf("\t%s\tShould round 15e-19 up to even.", success)
	}
}

func Test_CornerArea(t *testing.T) {
	t.Log("Given the need to validate a corner child covers a quarter of the parent.")
	{
		parent := unitTriangle(t)
		parentArea := geometry.Area(parent)

		quarter := decimal.New(25, -2)

		for sel := 0; sel < 3; sel++ {
			child, err := geometry.Corner(parent, sel)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to derive corner %d: %v", failed, sel, err)
			}

			childArea := geometry.Area(child)
			exp := parentArea.Mul(quarter)

			// Midpoint rounding may shave at most a few ulps off the exact
			// quarter, never more than the epsilon scale.
			diff := childArea.Sub(exp).Abs()
			if diff.Cmp(decimal.New(1, -17)) > 0 {
				t.Logf("\t%s\tgot: %s", failed, childArea)
				t.Logf("\t%s\texp: %s", failed, exp)
				t.Fatalf("\t%s\tShould get a quarter area for corner %d.", failed, sel)
			}
			t.Logf("\t%s\tShould get a quarter area for corner %d.", success, sel)
		}
	}
}

func Test_CornerSelectors(t *testing.T) {
	t.Log("Given the need to validate corner selection retains the right vertex.")
	{
		parent := unitTriangle(t)

		for sel := 0; sel < 3; sel++ {
			child, err := geometry.Corner(parent, sel)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to derive corner %d: %v", failed, sel, err)
			}

			retained := false
			for _, p := range child {
				if p.Equal(parent[sel]) {
					retained = true
				}
			}
			if !retained {
				t.Fatalf("\t%s\tShould retain parent vertex %d in the child.", failed, sel)
			}
			t.Logf("\t%s\tShould retain parent vertex %d in the child.", success, sel)
		}

		if _, err := geometry.Corner(parent, 3); err == nil {
			t.Fatalf("\t%s\tShould reject a selector out of range.", failed)
		}
		t.Logf("\t%s\tShould reject a selector out of range.", success)
	}
}

func Test_DeriveDeterminism(t *testing.T) {
	t.Log("Given the need to validate address derivation is a pure function.")
	{
		genesis := unitTriangle(t)
		path := []uint8{0, 2, 1, 1, 0, 2, 2, 0}

		v1, err := geometry.Derive(genesis, path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the path: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to derive the path.", success)

		v2, err := geometry.Derive(genesis, path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the path again: %v", failed, err)
		}

		for i := range v1 {
			if !v1[i].Equal(v2[i]) {
				t.Fatalf("\t%s\tShould derive bit identical vertices both times.", failed)
			}
		}
		t.Logf("\t%s\tShould derive bit identical vertices both times.", success)
	}
}

func Test_DegenerateDepth(t *testing.T) {
	t.Log("Given the need to validate derivation fails once the area collapses.")
	{
		genesis := unitTriangle(t)

		// Each level quarters the area. The unit triangle starts around
		// 0.43, so by depth 64 the area is far below the 1e-36 epsilon.
		path := make([]uint8, 64)

		_, err := geometry.Derive(genesis, path)
		if err == nil {
			t.Fatalf("\t%s\tShould reject a path that collapses the area.", failed)
		}
		t.Logf("\t%s\tShould reject a path that collapses the area.", success)

		if !errors.Is(err, geometry.ErrDegenerate) {
			t.Fatalf("\t%s\tShould get ErrDegenerate: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrDegenerate.", success)
	}
}

func Test_DegenerateGenesis(t *testing.T) {
	t.Log("Given the need to validate collinear genesis vertices are rejected.")
	{
		var vs geometry.Vertices
		for i, c := range [3][2]string{{"0", "0"}, {"1", "1"}, {"2", "2"}} {
			p, err := geometry.NewPoint(c[0], c[1])
			if err != nil {
				t.Fatalf("\t%s\tShould be able to parse point %d: %v", failed, i, err)
			}
			vs[i] = p
		}

		if !geometry.IsDegenerate(vs) {
			t.Fatalf("\t%s\tShould flag collinear vertices as degenerate.", failed)
		}
		t.Logf("\t%s\tShould flag collinear vertices as degenerate.", success)

		if _, err := geometry.Derive(vs, nil); err == nil {
			t.Fatalf("\t%s\tShould refuse to derive from a degenerate genesis.", failed)
		}
		t.Logf("\t%s\tShould refuse to derive from a degenerate genesis.", success)
	}
}
