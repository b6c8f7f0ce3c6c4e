package ring

import (
	"testing"

	"github.com/shibai/dht/internal/address"
)

func endpoints(n int) []address.Endpoint {
	out := make([]address.Endpoint, n)
	for i := 0; i < n; i++ {
		out[i] = address.Endpoint{ID: uint32(i + 1), Port: 0}
	}
	return out
}

func TestRingIsSortedByHashCode(t *testing.T) {
	r := New(997, endpoints(8))
	nodes := r.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i].HashCode < nodes[i-1].HashCode {
			t.Fatalf("ring not sorted ascending at index %d: %+v", i, nodes)
		}
	}
}

func TestNeighborsRequiresAtLeastThreeNodes(t *testing.T) {
	r := New(997, endpoints(2))
	n := r.Neighbors(endpoints(2)[0])
	if n.Valid {
		t.Fatal("expected invalid neighborhood for ring size below 3")
	}
}

func TestNeighborsWraparound(t *testing.T) {
	eps := endpoints(5)
	r := New(997, eps)
	nodes := r.Nodes()

	for i, n := range nodes {
		nb := r.Neighbors(n.Endpoint)
		if !nb.Valid {
			t.Fatalf("expected valid neighborhood for node %d", i)
		}
		size := len(nodes)
		wantPost1 := nodes[(i+1)%size].Endpoint
		wantPost2 := nodes[(i+2)%size].Endpoint
		wantPre1 := nodes[(i-2+2*size)%size].Endpoint
		wantPre2 := nodes[(i-1+size)%size].Endpoint
		if nb.HasMyReplicas[0] != wantPost1 || nb.HasMyReplicas[1] != wantPost2 {
			t.Fatalf("node %d: unexpected has_my_replicas %+v", i, nb.HasMyReplicas)
		}
		if nb.HaveReplicasOf[0] != wantPre1 || nb.HaveReplicasOf[1] != wantPre2 {
			t.Fatalf("node %d: unexpected have_replicas_of %+v", i, nb.HaveReplicasOf)
		}
	}
}

func TestFindReplicasRequiresThreeNodes(t *testing.T) {
	r := New(997, endpoints(2))
	_, ok := r.FindReplicas("some-key")
	if ok {
		t.Fatal("expected no replicas to be found with fewer than 3 ring nodes")
	}
}

func TestFindReplicasReturnsThreeDistinctNodes(t *testing.T) {
	r := New(997, endpoints(10))
	keys := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, k := range keys {
		repl, ok := r.FindReplicas(k)
		if !ok {
			t.Fatalf("key %q: expected replicas to be found", k)
		}
		if repl.Primary == repl.Secondary || repl.Secondary == repl.Tertiary || repl.Primary == repl.Tertiary {
			t.Fatalf("key %q: replica set not distinct: %+v", k, repl)
		}
	}
}

func TestFindReplicasIsStableAcrossCalls(t *testing.T) {
	r := New(997, endpoints(10))
	a, _ := r.FindReplicas("stable-key")
	b, _ := r.FindReplicas("stable-key")
	if a != b {
		t.Fatalf("expected deterministic replica placement, got %+v then %+v", a, b)
	}
}
