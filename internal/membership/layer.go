// Package membership implements the gossip-style failure detector (ML): join
// bootstrapping through a fixed introducer, periodic heartbeat gossip, and
// timeout-based eviction of silently-failed peers.
package membership

import (
	"math/rand"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/wire"
)

// Layer is one node's membership protocol state.
type Layer struct {
	self       address.Endpoint
	introducer address.Endpoint
	gpsz       int

	table     *Table
	inGroup   bool
	heartbeat int64

	net    *netsim.Network
	logger logx.Logger
	rng    *rand.Rand
}

// NewLayer creates a membership layer for self, bootstrapping against
// introducer. EN_GPSZ (gpsz) derives the suspicion and eviction windows.
func NewLayer(self, introducer address.Endpoint, gpsz int, net *netsim.Network, logger logx.Logger, seed int64) *Layer {
	return &Layer{
		self:       self,
		introducer: introducer,
		gpsz:       gpsz,
		table:      NewTable(),
		net:        net,
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// suspectAfter and evictAfter are the suspicion and eviction windows derived
// from EN_GPSZ, per §4.2.
func (l *Layer) suspectAfter() int64 { return int64(2 * l.gpsz) }
func (l *Layer) evictAfter() int64   { return int64(2*l.gpsz + 10) }

// InGroup reports whether this node has completed bootstrapping.
func (l *Layer) InGroup() bool { return l.inGroup }

// Snapshot returns the current membership view, including this node's own
// entry once it has joined the group.
func (l *Layer) Snapshot() []Entry {
	return l.table.Entries()
}

// Start bootstraps the node against the fixed introducer. Every node logs
// its own addition here regardless of whether it is the introducer or a
// joiner waiting on a JOINREP, matching the unconditional self-add log in
// the historical introduceSelfToGroup.
func (l *Layer) Start(now int64) {
	if l.self == l.introducer {
		l.inGroup = true
		l.table.Put(Entry{Endpoint: l.self, Heartbeat: l.heartbeat, LocalTimestamp: now})
	} else {
		req := wire.MLMessage{Type: wire.JoinReq, Sender: l.self, Heartbeat: l.heartbeat}
		l.net.Send(l.self, l.introducer, netsim.MLLayer, req.Encode())
	}
	l.logger.LogNodeAdd(l.self, l.self)
}

// Step drains this tick's inbound messages, then (once in the group) runs
// eviction, heartbeat bumping, and a single gossip round.
func (l *Layer) Step(now int64) {
	for _, raw := range l.net.DrainML(l.self) {
		msg, err := wire.DecodeMLMessage(raw)
		if err != nil {
			l.logger.Log(l.self, "membership: dropping malformed message: "+err.Error())
			continue
		}
		l.handle(now, msg)
	}

	if !l.inGroup {
		return
	}
	l.ops(now)
}

func (l *Layer) handle(now int64, msg wire.MLMessage) {
	switch msg.Type {
	case wire.JoinReq:
		l.handleJoinReq(now, msg)
	case wire.JoinRep:
		l.handleJoinRep(now, msg)
	case wire.Gossip:
		l.handleGossip(now, msg)
	}
}

func (l *Layer) handleJoinReq(now int64, msg wire.MLMessage) {
	reply := wire.MLMessage{Type: wire.JoinRep, Sender: l.self, Members: l.toWireMembers()}
	l.net.Send(l.self, msg.Sender, netsim.MLLayer, reply.Encode())

	_, existed := l.table.Get(msg.Sender.ID)
	l.table.Put(Entry{Endpoint: msg.Sender, Heartbeat: msg.Heartbeat, LocalTimestamp: now})
	if !existed {
		l.logger.LogNodeAdd(l.self, msg.Sender)
	}
}

func (l *Layer) handleJoinRep(now int64, msg wire.MLMessage) {
	l.table = NewTable()
	for _, m := range msg.Members {
		l.table.Put(Entry{Endpoint: m.Endpoint, Heartbeat: m.Heartbeat, LocalTimestamp: m.Timestamp})
		l.logger.LogNodeAdd(l.self, m.Endpoint)
	}
	l.inGroup = true
}

func (l *Layer) handleGossip(now int64, msg wire.MLMessage) {
	for _, m := range msg.Members {
		if m.Endpoint.ID == l.self.ID {
			continue
		}

		existing, ok := l.table.Get(m.Endpoint.ID)
		if ok {
			if m.Heartbeat > existing.Heartbeat {
				l.table.Put(Entry{Endpoint: m.Endpoint, Heartbeat: m.Heartbeat, LocalTimestamp: now})
			}
			continue
		}

		if now-m.Timestamp < l.suspectAfter() {
			l.table.Put(Entry{Endpoint: m.Endpoint, Heartbeat: m.Heartbeat, LocalTimestamp: m.Timestamp})
			l.logger.LogNodeAdd(l.self, m.Endpoint)
		}
	}
}

// ops evicts timed-out peers, advances this node's own heartbeat, and
// gossips the full table to one randomly chosen peer.
func (l *Layer) ops(now int64) {
	for _, e := range l.table.Entries() {
		if e.Endpoint.ID == l.self.ID {
			continue
		}
		if now-e.LocalTimestamp > l.evictAfter() {
			l.table.Remove(e.Endpoint.ID)
			l.logger.LogNodeRemove(l.self, e.Endpoint)
		}
	}

	l.heartbeat++
	l.table.Put(Entry{Endpoint: l.self, Heartbeat: l.heartbeat, LocalTimestamp: now})

	peers := l.otherPeers()
	if len(peers) == 0 {
		return
	}
	target := peers[l.rng.Intn(len(peers))]
	gossip := wire.MLMessage{Type: wire.Gossip, Sender: l.self, Members: l.toWireMembers()}
	l.net.Send(l.self, target, netsim.MLLayer, gossip.Encode())
}

func (l *Layer) otherPeers() []address.Endpoint {
	var out []address.Endpoint
	for _, e := range l.table.Entries() {
		if e.Endpoint.ID != l.self.ID {
			out = append(out, e.Endpoint)
		}
	}
	return out
}

func (l *Layer) toWireMembers() []wire.MLMember {
	entries := l.table.Entries()
	out := make([]wire.MLMember, len(entries))
	for i, e := range entries {
		out[i] = wire.MLMember{Endpoint: e.Endpoint, Heartbeat: e.Heartbeat, Timestamp: e.LocalTimestamp}
	}
	return out
}

// Shutdown tears down this node's membership state: clears the table, marks
// it out of the group, and releases per-node state. This is the
// re-architected equivalent of the historically-unimplemented
// finishUpThisNode (§9).
func (l *Layer) Shutdown() error {
	l.table = NewTable()
	l.inGroup = false
	return nil
}
