// Package sim is the discrete-tick simulation driver: it owns one Node per
// simulated process and advances them all through the emulated network one
// tick at a time.
package sim

import (
	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/kv"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/membership"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/ring"
	"github.com/shibai/dht/internal/wire"
)

// Node bundles one simulated process's membership, ring, and key-value
// state. All fields are owned exclusively by this node's own tick
// goroutine; the only cross-node interaction is through the network.
type Node struct {
	self address.Endpoint

	ringSize int
	ml       *membership.Layer
	ring     *ring.Ring
	neighbor ring.Neighborhood

	coordinator *kv.Coordinator
	server      *kv.Server

	net    *netsim.Network
	logger logx.Logger
}

// NewNode wires a node's membership layer, ring, and key-value halves
// against a shared emulated network.
func NewNode(self, introducer address.Endpoint, gpsz, ringSize int, net *netsim.Network, logger logx.Logger, seed int64) *Node {
	net.Register(self)
	return &Node{
		self:        self,
		ringSize:    ringSize,
		ml:          membership.NewLayer(self, introducer, gpsz, net, logger, seed),
		ring:        ring.New(ringSize, nil),
		coordinator: kv.NewCoordinator(self, net, logger),
		server:      kv.NewServer(self, net, logger),
		net:         net,
		logger:      logger,
	}
}

// Self returns the node's endpoint.
func (n *Node) Self() address.Endpoint { return n.self }

// Bootstrap runs the one-time membership bootstrap step.
func (n *Node) Bootstrap(now int64) { n.ml.Start(now) }

// InGroup reports whether this node has completed membership bootstrap.
func (n *Node) InGroup() bool { return n.ml.InGroup() }

// RingSize reports the size of this node's current ring view, which callers
// issuing client traffic check before they begin.
func (n *Node) RingSize() int { return n.ring.Len() }

// Coordinator exposes the client-facing half of this node's key-value role.
func (n *Node) Coordinator() *kv.Coordinator { return n.coordinator }

// Step advances this node by one tick: membership processing, ring
// maintenance and stabilization, key-value request/reply handling, and the
// coordinator's timeout sweep. It performs no network I/O itself beyond
// what the membership layer and key-value handlers already do through net.
func (n *Node) Step(now int64) {
	n.ml.Step(now)
	n.updateRing(now)
	n.drainKV(now)
	n.coordinator.SweepTimeouts(now)
}

func (n *Node) updateRing(now int64) {
	snapshot := n.ml.Snapshot()
	endpoints := make([]address.Endpoint, len(snapshot))
	for i, e := range snapshot {
		endpoints[i] = e.Endpoint
	}
	newRing := ring.New(n.ringSize, endpoints)

	oldNeighbor := n.neighbor
	newNeighbor := newRing.Neighbors(n.self)

	changed := !sameNeighborhood(oldNeighbor, newNeighbor)
	n.ring = newRing
	n.neighbor = newNeighbor

	if changed && n.server.Store().Len() > 0 {
		kv.Stabilize(n.self, n.server.Store(), n.net, oldNeighbor, newNeighbor)
	}
}

func sameNeighborhood(a, b ring.Neighborhood) bool {
	return a.Valid == b.Valid && a.HasMyReplicas == b.HasMyReplicas && a.HaveReplicasOf == b.HaveReplicasOf
}

func (n *Node) drainKV(now int64) {
	for _, raw := range n.net.DrainKV(n.self) {
		msg, err := wire.DecodeKVMessage(string(raw))
		if err != nil {
			n.logger.Log(n.self, "kv: dropping malformed message: "+err.Error())
			continue
		}
		switch msg.Type {
		case wire.Reply, wire.ReadReply:
			n.coordinator.HandleReply(now, msg)
		default:
			n.server.Handle(now, msg)
		}
	}
}

// FindReplicas resolves the current replica placement for key from this
// node's ring view.
func (n *Node) FindReplicas(key string) (ring.Replicas, bool) {
	return n.ring.FindReplicas(key)
}

// Shutdown tears down this node's membership state.
func (n *Node) Shutdown() error {
	return n.ml.Shutdown()
}
