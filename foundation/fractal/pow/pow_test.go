package pow_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/triadchain/triadchain/foundation/fractal/pow"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_DepthTarget(t *testing.T) {
	t.Log("Given the need to validate depth weighted targets.")
	{
		base, err := pow.ParseTarget("0x0000400000000000000000000000000000000000000000000000000000000000")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the base target: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to parse the base target.", success)

		prev := pow.DepthTarget(base, 0)
		if !prev.Eq(base) {
			t.Fatalf("\t%s\tShould leave the target unchanged at depth zero.", failed)
		}
		t.Logf("\t%s\tShould leave the target unchanged at depth zero.", success)

		for depth := 1; depth <= 8; depth++ {
			next := pow.DepthTarget(base, depth)
			if !next.Lt(prev) {
				t.Fatalf("\t%s\tShould tighten the target at depth %d.", failed, depth)
			}

			half := new(uint256.Int).Rsh(prev, 1)
			if !next.Eq(half) {
				t.Fatalf("\t%s\tShould halve the target at depth %d.", failed, depth)
			}
			prev = next
		}
		t.Logf("\t%s\tShould halve the target at every depth.", success)

		floor := pow.DepthTarget(uint256.NewInt(1), 500)
		if !floor.Eq(uint256.NewInt(1)) {
			t.Fatalf("\t%s\tShould never drop the target below one.", failed)
		}
		t.Logf("\t%s\tShould never drop the target below one.", success)
	}
}

func Test_ProofHashBinding(t *testing.T) {
	t.Log("Given the need to validate the proof hash binds all its inputs.")
	{
		base := pow.ProofHash("0.1", "subdivide", "0xaa", 7)

		alts := [][4]any{
			{"0.2", "subdivide", "0xaa", uint64(7)},
			{"0.1", "void", "0xaa", uint64(7)},
			{"0.1", "subdivide", "0xbb", uint64(7)},
			{"0.1", "subdivide", "0xaa", uint64(8)},
		}

		for i, alt := range alts {
			h := pow.ProofHash(alt[0].(string), alt[1].(string), alt[2].(string), alt[3].(uint64))
			if h == base {
				t.Fatalf("\t%s\tShould change the hash when input %d changes.", failed, i)
			}
		}
		t.Logf("\t%s\tShould change the hash when any input changes.", success)

		if pow.ProofHash("0.1", "subdivide", "0xaa", 7) != base {
			t.Fatalf("\t%s\tShould compute the same hash for the same inputs.", failed)
		}
		t.Logf("\t%s\tShould compute the same hash for the same inputs.", success)
	}
}

func Test_Work(t *testing.T) {
	t.Log("Given the need to validate work accounting orders by difficulty.")
	{
		easy, _ := pow.ParseTarget("0x4000000000000000000000000000000000000000000000000000000000000000")
		hard, _ := pow.ParseTarget("0x0000400000000000000000000000000000000000000000000000000000000000")

		if pow.Work(hard).Cmp(pow.Work(easy)) <= 0 {
			t.Fatalf("\t%s\tShould assign more work to the harder target.", failed)
		}
		t.Logf("\t%s\tShould assign more work to the harder target.", success)

		if pow.Work(pow.MaxTarget()).Cmp(big.NewInt(1)) != 0 {
			t.Fatalf("\t%s\tShould assign unit work to the easiest target.", failed)
		}
		t.Logf("\t%s\tShould assign unit work to the easiest target.", success)
	}
}

func Test_Retarget(t *testing.T) {
	t.Log("Given the need to validate epoch retargeting.")
	{
		prev, _ := pow.ParseTarget("0x0000400000000000000000000000000000000000000000000000000000000000")
		expected := 320 * time.Second

		same := pow.Retarget(prev, expected, expected)
		if !same.Eq(prev) {
			t.Fatalf("\t%s\tShould keep the target when blocks arrive on schedule.", failed)
		}
		t.Logf("\t%s\tShould keep the target when blocks arrive on schedule.", success)

		slower := pow.Retarget(prev, 2*expected, expected)
		if !slower.Gt(prev) {
			t.Fatalf("\t%s\tShould loosen the target when blocks are slow.", failed)
		}
		t.Logf("\t%s\tShould loosen the target when blocks are slow.", success)

		faster := pow.Retarget(prev, expected/2, expected)
		if !faster.Lt(prev) {
			t.Fatalf("\t%s\tShould tighten the target when blocks are fast.", failed)
		}
		t.Logf("\t%s\tShould tighten the target when blocks are fast.", success)

		clampedUp := pow.Retarget(prev, 100*expected, expected)
		exp := new(uint256.Int).Lsh(prev, 2)
		if !clampedUp.Eq(exp) {
			t.Fatalf("\t%s\tShould clamp the loosening to a factor of four.", failed)
		}
		t.Logf("\t%s\tShould clamp the loosening to a factor of four.", success)

		clampedDown := pow.Retarget(prev, expected/100, expected)
		exp = new(uint256.Int).Rsh(prev, 2)
		if !clampedDown.Eq(exp) {
			t.Fatalf("\t%s\tShould clamp the tightening to a factor of four.", failed)
		}
		t.Logf("\t%s\tShould clamp the tightening to a factor of four.", success)
	}
}

func Test_Score(t *testing.T) {
	t.Log("Given the need to validate the proof quality score.")
	{
		target, _ := pow.ParseTarget("0x8000000000000000000000000000000000000000000000000000000000000000")

		var zero [32]byte
		s := pow.Score(zero, target)
		if s <= 0.99 || s > 1 {
			t.Fatalf("\t%s\tShould score a zero hash near one: got %f", failed, s)
		}
		t.Logf("\t%s\tShould score a zero hash near one.", success)

		var above [32]byte
		above[0] = 0x90
		if pow.Score(above, target) != 0 {
			t.Fatalf("\t%s\tShould score an unsolved hash as zero.", failed)
		}
		t.Logf("\t%s\tShould score an unsolved hash as zero.", success)

		var near [32]byte
		near[0] = 0x7f
		ns := pow.Score(near, target)
		if ns <= 0 || ns >= s {
			t.Fatalf("\t%s\tShould score a barely solved hash below a strong one.", failed)
		}
		t.Logf("\t%s\tShould score a barely solved hash below a strong one.", success)
	}
}

func Test_ParseTarget(t *testing.T) {
	t.Log("Given the need to validate target parsing.")
	{
		if _, err := pow.ParseTarget("0x0"); err == nil {
			t.Fatalf("\t%s\tShould reject a zero target.", failed)
		}
		t.Logf("\t%s\tShould reject a zero target.", success)

		if _, err := pow.ParseTarget("not hex"); err == nil {
			t.Fatalf("\t%s\tShould reject malformed hex.", failed)
		}
		t.Logf("\t%s\tShould reject malformed hex.", success)

		target, err := pow.ParseTarget("0xff")
		if err != nil {
			t.Fatalf("\t%s\tShould parse a valid target: %v", failed, err)
		}
		if pow.FormatTarget(target) != "0xff" {
			t.Fatalf("\t%s\tShould round trip through FormatTarget.", failed)
		}
		t.Logf("\t%s\tShould round trip through FormatTarget.", success)
	}
}
