// Package netsim implements the emulated network the membership and
// key-value layers treat as an external collaborator: a pull-based,
// best-effort, fire-and-forget transport with optional drop/duplicate/delay
// fault injection driven by a seeded PRNG, following the same
// seeded-math/rand approach the teacher's gossip package uses to pick random
// peers reproducibly.
package netsim

import (
	"math/rand"
	"sync"

	"github.com/shibai/dht/internal/address"
)

// Layer identifies which of a node's two inboxes a message is destined for.
type Layer int

const (
	MLLayer Layer = iota
	KVLayer
)

// FaultConfig controls the network's best-effort delivery behavior.
type FaultConfig struct {
	DropRate      float64 // probability in [0,1] a send is silently dropped
	DuplicateRate float64 // probability in [0,1] a send is delivered twice
	MaxDelayTicks int     // messages are delayed uniformly in [0, MaxDelayTicks]
}

type queue struct {
	mu    sync.Mutex
	items [][]byte
}

func (q *queue) push(b []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, b)
}

func (q *queue) drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

type pending struct {
	deliverAt int64
	to        address.Endpoint
	layer     Layer
	payload   []byte
}

// Network is the emulated network shared by every simulated node.
type Network struct {
	mu     sync.Mutex
	rng    *rand.Rand
	faults FaultConfig
	tick   int64

	ml      map[uint32]*queue
	kv      map[uint32]*queue
	pending []pending
}

// New creates an emulated network seeded for reproducible fault injection.
func New(seed int64, faults FaultConfig) *Network {
	return &Network{
		rng:    rand.New(rand.NewSource(seed)),
		faults: faults,
		ml:     map[uint32]*queue{},
		kv:     map[uint32]*queue{},
	}
}

// Register allocates inboxes for a node. Must be called before Send targets it.
func (n *Network) Register(addr address.Endpoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.ml[addr.ID]; !ok {
		n.ml[addr.ID] = &queue{}
	}
	if _, ok := n.kv[addr.ID]; !ok {
		n.kv[addr.ID] = &queue{}
	}
}

// Send is best-effort, fire-and-forget: the network may drop, delay, or
// duplicate at its own discretion. from is accepted for symmetry with the
// emulated network contract but is not otherwise used for routing.
func (n *Network) Send(from, to address.Endpoint, layer Layer, payload []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.faults.DropRate > 0 && n.rng.Float64() < n.faults.DropRate {
		return
	}

	copies := 1
	if n.faults.DuplicateRate > 0 && n.rng.Float64() < n.faults.DuplicateRate {
		copies = 2
	}

	for i := 0; i < copies; i++ {
		delay := int64(0)
		if n.faults.MaxDelayTicks > 0 {
			delay = int64(n.rng.Intn(n.faults.MaxDelayTicks + 1))
		}
		n.pending = append(n.pending, pending{
			deliverAt: n.tick + delay,
			to:        to,
			layer:     layer,
			payload:   payload,
		})
	}
}

// Tick advances the network's clock by one and flushes any messages now due
// for delivery into their destination inbox.
func (n *Network) Tick() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tick++

	remaining := n.pending[:0]
	for _, p := range n.pending {
		if p.deliverAt <= n.tick {
			var q *queue
			switch p.layer {
			case MLLayer:
				q = n.ml[p.to.ID]
			case KVLayer:
				q = n.kv[p.to.ID]
			}
			if q != nil {
				q.push(p.payload)
			}
		} else {
			remaining = append(remaining, p)
		}
	}
	n.pending = remaining
}

// DrainML returns and clears every membership-layer message queued for addr.
func (n *Network) DrainML(addr address.Endpoint) [][]byte {
	n.mu.Lock()
	q := n.ml[addr.ID]
	n.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.drain()
}

// DrainKV returns and clears every key-value-layer message queued for addr.
func (n *Network) DrainKV(addr address.Endpoint) [][]byte {
	n.mu.Lock()
	q := n.kv[addr.ID]
	n.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.drain()
}
