// Package ring maintains the consistent-hash ring view each node rebuilds
// from its membership snapshot, and the neighborhood lists that drive
// replication and stabilization.
package ring

import (
	"sort"

	"github.com/shibai/dht/internal/address"
)

// Node is one ring position: an endpoint and its hashed slot.
type Node struct {
	Endpoint address.Endpoint
	HashCode int
}

// Ring is a sorted view of live nodes, rebuilt each KV tick from the
// membership layer's snapshot.
type Ring struct {
	size  int
	nodes []Node
}

// New builds a ring of the given size from a set of live endpoints.
func New(size int, endpoints []address.Endpoint) *Ring {
	nodes := make([]Node, len(endpoints))
	for i, e := range endpoints {
		nodes[i] = Node{Endpoint: e, HashCode: e.RingPosition(size)}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].HashCode != nodes[j].HashCode {
			return nodes[i].HashCode < nodes[j].HashCode
		}
		bi, bj := nodes[i].Endpoint.Bytes(), nodes[j].Endpoint.Bytes()
		for k := range bi {
			if bi[k] != bj[k] {
				return bi[k] < bj[k]
			}
		}
		return false
	})
	return &Ring{size: size, nodes: nodes}
}

// Len reports the number of live nodes in the ring.
func (r *Ring) Len() int { return len(r.nodes) }

// Nodes returns a copy of the sorted ring.
func (r *Ring) Nodes() []Node {
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// indexOf returns the position of endpoint in the sorted ring, or -1.
func (r *Ring) indexOf(e address.Endpoint) int {
	for i, n := range r.nodes {
		if n.Endpoint == e {
			return i
		}
	}
	return -1
}

// Neighborhood is the replica placement relative to self: the two
// successors that hold self's primaries as secondary/tertiary, and the two
// predecessors whose primaries self holds as secondary/tertiary.
type Neighborhood struct {
	HasMyReplicas  [2]address.Endpoint // post1, post2
	HaveReplicasOf [2]address.Endpoint // pre1, pre2
	Valid          bool
}

// Neighbors computes self's neighborhood in this ring. Valid is false when
// the ring has fewer than 3 nodes or self is absent from it.
func (r *Ring) Neighbors(self address.Endpoint) Neighborhood {
	n := len(r.nodes)
	if n < 3 {
		return Neighborhood{}
	}
	i := r.indexOf(self)
	if i < 0 {
		return Neighborhood{}
	}
	return Neighborhood{
		HasMyReplicas:  [2]address.Endpoint{r.nodes[(i+1)%n].Endpoint, r.nodes[(i+2)%n].Endpoint},
		HaveReplicasOf: [2]address.Endpoint{r.nodes[(i-2+2*n)%n].Endpoint, r.nodes[(i-1+n)%n].Endpoint},
		Valid:          true,
	}
}

// Replicas is the primary/secondary/tertiary placement for a key.
type Replicas struct {
	Primary, Secondary, Tertiary address.Endpoint
}

// FindReplicas locates the three replicas responsible for key. ok is false
// when the ring has fewer than 3 nodes, per the no-quorum-possible contract.
func (r *Ring) FindReplicas(key string) (Replicas, bool) {
	n := len(r.nodes)
	if n < 3 {
		return Replicas{}, false
	}
	pos := address.KeyRingPosition(key, r.size)

	idx := sort.Search(n, func(i int) bool { return r.nodes[i].HashCode >= pos })
	if idx == n {
		idx = 0
	}
	return Replicas{
		Primary:   r.nodes[idx].Endpoint,
		Secondary: r.nodes[(idx+1)%n].Endpoint,
		Tertiary:  r.nodes[(idx+2)%n].Endpoint,
	}, true
}
