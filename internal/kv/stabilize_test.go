package kv

import (
	"testing"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/ring"
	"github.com/shibai/dht/internal/store"
	"github.com/shibai/dht/internal/wire"
)

func TestStabilizeImmediatePredecessorFailurePromotesSecondary(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	farPreOld := address.Endpoint{ID: 10}
	nearPreOld := address.Endpoint{ID: 20} // fails
	farPreNew := address.Endpoint{ID: 30}
	net.Register(self)
	net.Register(farPreOld)
	net.Register(nearPreOld)
	net.Register(farPreNew)

	st := store.New()
	st.Create("k", "v", 0, wire.Secondary)

	old := ring.Neighborhood{Valid: true, HaveReplicasOf: [2]address.Endpoint{farPreOld, nearPreOld}}
	// nearPreOld fails: new near predecessor is the old far predecessor, and a
	// fresh far predecessor takes its place.
	newNb := ring.Neighborhood{Valid: true, HaveReplicasOf: [2]address.Endpoint{farPreNew, farPreOld}}

	Stabilize(self, st, net, old, newNb)

	entries := st.Entries()
	if entries["k"].Role != wire.Primary {
		t.Fatalf("expected promotion to Primary, got %v", entries["k"].Role)
	}

	toFar := net.DrainKV(farPreNew)
	if len(toFar) != 1 {
		t.Fatalf("expected one message to new far predecessor, got %d", len(toFar))
	}
	msg, _ := wire.DecodeKVMessage(string(toFar[0]))
	if msg.Type != wire.Update || msg.Role != wire.Secondary {
		t.Fatalf("expected Update(Secondary) to far predecessor, got %+v", msg)
	}

	toNear := net.DrainKV(farPreOld)
	if len(toNear) != 1 {
		t.Fatalf("expected one message to new near predecessor, got %d", len(toNear))
	}
	msg, _ = wire.DecodeKVMessage(string(toNear[0]))
	if msg.Type != wire.Create || msg.Role != wire.Tertiary {
		t.Fatalf("expected Create(Tertiary) to near predecessor, got %+v", msg)
	}
}

func TestStabilizeBothSuccessorsChangedCreatesFreshCopies(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	oldPost1 := address.Endpoint{ID: 10}
	oldPost2 := address.Endpoint{ID: 20}
	newPost1 := address.Endpoint{ID: 30}
	newPost2 := address.Endpoint{ID: 40}
	net.Register(self)
	net.Register(newPost1)
	net.Register(newPost2)

	st := store.New()
	st.Create("k", "v", 0, wire.Primary)

	old := ring.Neighborhood{Valid: true, HasMyReplicas: [2]address.Endpoint{oldPost1, oldPost2}}
	newNb := ring.Neighborhood{Valid: true, HasMyReplicas: [2]address.Endpoint{newPost1, newPost2}}

	Stabilize(self, st, net, old, newNb)

	toPost1 := net.DrainKV(newPost1)
	msg1, _ := wire.DecodeKVMessage(string(toPost1[0]))
	if msg1.Type != wire.Create || msg1.Role != wire.Secondary {
		t.Fatalf("expected Create(Secondary) to post1, got %+v", msg1)
	}

	toPost2 := net.DrainKV(newPost2)
	msg2, _ := wire.DecodeKVMessage(string(toPost2[0]))
	if msg2.Type != wire.Create || msg2.Role != wire.Tertiary {
		t.Fatalf("expected Create(Tertiary) to post2, got %+v", msg2)
	}
}

func TestStabilizeNoopWhenNeighborhoodUnchanged(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	post1 := address.Endpoint{ID: 10}
	post2 := address.Endpoint{ID: 20}
	net.Register(self)
	net.Register(post1)
	net.Register(post2)

	st := store.New()
	st.Create("k", "v", 0, wire.Primary)

	nb := ring.Neighborhood{Valid: true, HasMyReplicas: [2]address.Endpoint{post1, post2}}
	Stabilize(self, st, net, nb, nb)

	if len(net.DrainKV(post1)) != 0 || len(net.DrainKV(post2)) != 0 {
		t.Fatal("unchanged neighborhood should trigger no stabilization traffic")
	}
}
