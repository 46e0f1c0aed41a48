package peer_test

import (
	"testing"

	"github.com/triadchain/triadchain/foundation/fractal/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_PeerSet(t *testing.T) {
	t.Log("Given the need to validate maintaining the set of known peers.")
	{
		ps := peer.NewPeerSet()

		hosts := []string{"host1:9080", "host2:9080", "host3:9080"}
		for _, host := range hosts {
			if !ps.Add(peer.New(host)) {
				t.Fatalf("\t%s\tShould be able to add peer %s.", failed, host)
			}
		}
		t.Logf("\t%s\tShould be able to add three peers.", success)

		if ps.Add(peer.New("host1:9080")) {
			t.Fatalf("\t%s\tShould not add a duplicate peer.", failed)
		}
		t.Logf("\t%s\tShould not add a duplicate peer.", success)

		peers := ps.Copy("host1:9080")
		if len(peers) != 2 {
			t.Fatalf("\t%s\tShould copy the set excluding the host: got %d, exp 2", failed, len(peers))
		}
		for _, p := range peers {
			if p.Match("host1:9080") {
				t.Fatalf("\t%s\tShould not include the excluded host.", failed)
			}
		}
		t.Logf("\t%s\tShould copy the set excluding the host.", success)

		ps.Remove(peer.New("host2:9080"))
		if len(ps.Copy("")) != 2 {
			t.Fatalf("\t%s\tShould be able to remove a peer.", failed)
		}
		t.Logf("\t%s\tShould be able to remove a peer.", success)
	}
}

func Test_Match(t *testing.T) {
	t.Log("Given the need to validate host matching.")
	{
		p := peer.New("host1:9080")

		if !p.Match("host1:9080") {
			t.Fatalf("\t%s\tShould match the same host.", failed)
		}
		t.Logf("\t%s\tShould match the same host.", success)

		if p.Match("host2:9080") {
			t.Fatalf("\t%s\tShould not match a different host.", failed)
		}
		t.Logf("\t%s\tShould not match a different host.", success)
	}
}
