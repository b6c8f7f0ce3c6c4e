package sim

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
)

// Driver is the simulation's tick loop: it advances every node concurrently
// within a tick, synchronized by a WaitGroup barrier, mirroring the
// driver/worker split the rest of this lineage uses for independent
// background workers.
type Driver struct {
	net    *netsim.Network
	logger logx.Logger
	nodes  []*Node
	tick   int64
}

// NewDriver creates a driver over the given emulated network.
func NewDriver(net *netsim.Network, logger logx.Logger) *Driver {
	return &Driver{net: net, logger: logger}
}

// AddNode registers a node with the driver. It does not bootstrap the node's
// membership layer; Bootstrap does that for every registered node.
func (d *Driver) AddNode(n *Node) {
	d.nodes = append(d.nodes, n)
}

// Nodes returns every node registered with this driver.
func (d *Driver) Nodes() []*Node { return d.nodes }

// NodeByEndpoint finds a registered node by its endpoint.
func (d *Driver) NodeByEndpoint(e address.Endpoint) *Node {
	for _, n := range d.nodes {
		if n.Self() == e {
			return n
		}
	}
	return nil
}

// Bootstrap runs every node's one-time membership bootstrap at tick 0.
func (d *Driver) Bootstrap() {
	for _, n := range d.nodes {
		n.Bootstrap(0)
	}
}

// Fail simulates a silent process crash: the named node is removed from the
// tick loop, so it stops heartbeating, gossiping, and answering key-value
// requests, but stays registered with the network so traffic still routed
// to it simply accumulates undrained.
func (d *Driver) Fail(e address.Endpoint) {
	for i, n := range d.nodes {
		if n.Self() == e {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			return
		}
	}
}

// Run advances the simulation for the given number of ticks, or until ctx
// is cancelled. Each tick, every node's Step runs concurrently in its own
// goroutine; the driver waits for all of them before advancing the network
// clock, since the network's delayed-delivery queue must not flush a tick
// early relative to any node still mid-step.
func (d *Driver) Run(ctx context.Context, ticks int) {
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// The network clock advances before nodes step so that anything sent
		// during (or before) the previous tick with zero configured delay is
		// already sitting in a destination queue when that node steps.
		d.net.Tick()
		d.tick++

		var wg sync.WaitGroup
		for _, n := range d.nodes {
			n := n
			wg.Add(1)
			go func() {
				defer wg.Done()
				n.Step(d.tick)
			}()
		}
		wg.Wait()
	}
}

// Shutdown tears down every node's membership state, aggregating every
// per-node error instead of stopping at the first failure.
func (d *Driver) Shutdown() error {
	var err error
	for _, n := range d.nodes {
		err = multierr.Append(err, n.Shutdown())
	}
	return err
}
