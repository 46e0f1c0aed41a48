package database_test

import (
	"testing"

	"github.com/triadchain/triadchain/foundation/fractal/database"
)

func Test_AddressParsing(t *testing.T) {
	t.Log("Given the need to validate address parsing and formatting.")
	{
		addr, err := database.ToAddress("0.1.2")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse a valid address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to parse a valid address.", success)

		if addr.String() != "0.1.2" {
			t.Fatalf("\t%s\tShould round trip through String: got %q", failed, addr)
		}
		t.Logf("\t%s\tShould round trip through String.", success)

		if addr.Depth() != 3 {
			t.Fatalf("\t%s\tShould have depth three: got %d", failed, addr.Depth())
		}
		t.Logf("\t%s\tShould have depth three.", success)

		for _, s := range []string{"", "genesis"} {
			root, err := database.ToAddress(s)
			if err != nil {
				t.Fatalf("\t%s\tShould parse %q as the root: %v", failed, s, err)
			}
			if !root.IsGenesis() {
				t.Fatalf("\t%s\tShould parse %q as the root.", failed, s)
			}
		}
		t.Logf("\t%s\tShould parse the empty string and genesis as the root.", success)

		for _, s := range []string{"3", "0.4.1", "0..1", "a.b", "-1"} {
			if _, err := database.ToAddress(s); err == nil {
				t.Fatalf("\t%s\tShould reject the malformed address %q.", failed, s)
			}
		}
		t.Logf("\t%s\tShould reject malformed addresses.", success)
	}
}

func Test_AddressRelations(t *testing.T) {
	t.Log("Given the need to validate address hierarchy relations.")
	{
		parent, _ := database.ToAddress("0.1")
		child, _ := database.ToAddress("0.1.2")
		other, _ := database.ToAddress("0.2.2")

		got, ok := child.Parent()
		if !ok || got.String() != parent.String() {
			t.Fatalf("\t%s\tShould get the parent of a child address.", failed)
		}
		t.Logf("\t%s\tShould get the parent of a child address.", success)

		if _, ok := (database.Address{}).Parent(); ok {
			t.Fatalf("\t%s\tShould report the root has no parent.", failed)
		}
		t.Logf("\t%s\tShould report the root has no parent.", success)

		if !child.IsChildOf(parent) || other.IsChildOf(parent) {
			t.Fatalf("\t%s\tShould identify direct children.", failed)
		}
		t.Logf("\t%s\tShould identify direct children.", success)

		if !parent.IsAncestorOf(child) || parent.IsAncestorOf(parent) || parent.IsAncestorOf(other) {
			t.Fatalf("\t%s\tShould identify strict ancestors.", failed)
		}
		t.Logf("\t%s\tShould identify strict ancestors.", success)

		children := parent.Children()
		for i, c := range children {
			if !c.IsChildOf(parent) {
				t.Fatalf("\t%s\tShould enumerate child %d of the parent.", failed, i)
			}
		}
		t.Logf("\t%s\tShould enumerate all three children.", success)

		siblings := child.Siblings()
		if len(siblings) != 2 || siblings[0].String() != "0.1.0" || siblings[1].String() != "0.1.1" {
			t.Fatalf("\t%s\tShould list the two siblings of a child: got %v", failed, siblings)
		}
		t.Logf("\t%s\tShould list the two siblings of a child.", success)

		if (database.Address{}).Siblings() != nil {
			t.Fatalf("\t%s\tShould report the root has no siblings.", failed)
		}
		t.Logf("\t%s\tShould report the root has no siblings.", success)

		anc := database.CommonAncestor(child, other)
		exp, _ := database.ToAddress("0")
		if anc.String() != exp.String() {
			t.Fatalf("\t%s\tShould find the common ancestor: got %s", failed, anc)
		}
		t.Logf("\t%s\tShould find the common ancestor.", success)
	}
}

func Test_AddressText(t *testing.T) {
	t.Log("Given the need to validate address text marshaling.")
	{
		addr, _ := database.ToAddress("2.0.1")

		data, err := addr.MarshalText()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal an address: %v", failed, err)
		}

		var back database.Address
		if err := back.UnmarshalText(data); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal an address: %v", failed, err)
		}

		if back.String() != addr.String() {
			t.Fatalf("\t%s\tShould round trip through text form.", failed)
		}
		t.Logf("\t%s\tShould round trip through text form.", success)

		var root database.Address
		if err := root.UnmarshalText([]byte("genesis")); err != nil || !root.IsGenesis() {
			t.Fatalf("\t%s\tShould unmarshal the genesis text form.", failed)
		}
		t.Logf("\t%s\tShould unmarshal the genesis text form.", success)
	}
}

func Test_TriangleStates(t *testing.T) {
	t.Log("Given the need to validate the triangle state machine rules.")
	{
		canSubdivide := map[database.State]bool{
			database.StateGenesis:    true,
			database.StateActive:     true,
			database.StateSubdivided: false,
			database.StateVoid:       false,
		}

		for state, exp := range canSubdivide {
			if state.CanSubdivide() != exp {
				t.Fatalf("\t%s\tShould report CanSubdivide %v for %s.", failed, exp, state)
			}
		}
		t.Logf("\t%s\tShould permit subdivision only for genesis and active.", success)

		terminal := map[database.State]bool{
			database.StateGenesis:    false,
			database.StateActive:     false,
			database.StateSubdivided: true,
			database.StateVoid:       true,
		}

		for state, exp := range terminal {
			if state.IsTerminal() != exp {
				t.Fatalf("\t%s\tShould report IsTerminal %v for %s.", failed, exp, state)
			}
		}
		t.Logf("\t%s\tShould treat subdivided and void as terminal.", success)

		if database.State("melted").IsValid() {
			t.Fatalf("\t%s\tShould reject an unknown state.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown state.", success)
	}
}
