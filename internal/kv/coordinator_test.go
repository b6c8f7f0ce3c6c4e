package kv

import (
	"testing"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/ring"
	"github.com/shibai/dht/internal/wire"
)

func testReplicas() ring.Replicas {
	return ring.Replicas{
		Primary:   address.Endpoint{ID: 1},
		Secondary: address.Endpoint{ID: 2},
		Tertiary:  address.Endpoint{ID: 3},
	}
}

func findEvent(events []logx.Event, kind string) (logx.Event, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return logx.Event{}, false
}

func TestCreateQuorumSuccessRequiresTwoIndependentSuccesses(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 0}
	rec := logx.NewRecording()
	c := NewCoordinator(self, net, rec)

	trx := c.Create(0, "k", "v", testReplicas())

	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.Reply, Success: true})
	if c.Pending() != 1 {
		t.Fatal("transaction should remain open after a single reply")
	}
	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.Reply, Success: true})

	if c.Pending() != 0 {
		t.Fatal("transaction should close after two replies")
	}
	if _, ok := findEvent(rec.Events(), "create_success"); !ok {
		t.Fatalf("expected a create_success event, got %+v", rec.Events())
	}
	if _, ok := findEvent(rec.Events(), "create_fail"); ok {
		t.Fatalf("did not expect a create_fail event, got %+v", rec.Events())
	}
}

func TestCreateMixedRepliesDoNotCountAsQuorum(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 0}
	rec := logx.NewRecording()
	c := NewCoordinator(self, net, rec)

	trx := c.Create(0, "k", "v", testReplicas())
	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.Reply, Success: true})
	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.Reply, Success: false})

	if _, ok := findEvent(rec.Events(), "create_fail"); !ok {
		t.Fatalf("mixed success/failure replies must not count as quorum success, got %+v", rec.Events())
	}
	if _, ok := findEvent(rec.Events(), "create_success"); ok {
		t.Fatalf("did not expect a create_success event, got %+v", rec.Events())
	}
}

func TestReadReplyLogsMostRecentlyArrivedValue(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 0}
	rec := logx.NewRecording()
	c := NewCoordinator(self, net, rec)

	trx := c.Read(0, "k", testReplicas())
	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.ReadReply, Value: "first"})
	c.HandleReply(1, wire.KVMessage{TrxID: trx, Type: wire.ReadReply, Value: "second"})

	e, ok := findEvent(rec.Events(), "read_success")
	if !ok || e.Value != "second" {
		t.Fatalf("expected read_success with last-arrived value, got %+v", rec.Events())
	}
}

func TestTimeoutSweepClosesStaleTransactionsAsFailures(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 0}
	rec := logx.NewRecording()
	c := NewCoordinator(self, net, rec)

	trx := c.Create(0, "k", "v", testReplicas())
	c.SweepTimeouts(10) // exactly at the boundary: must not yet time out
	if c.Pending() != 1 {
		t.Fatal("transaction should survive exactly at the 10-tick boundary")
	}
	c.SweepTimeouts(11)
	if c.Pending() != 0 {
		t.Fatal("transaction should be closed once past the 10-tick deadline")
	}
	e, ok := findEvent(rec.Events(), "create_fail")
	if !ok || e.Trx != trx {
		t.Fatalf("expected a create_fail timeout event, got %+v", rec.Events())
	}
}

func TestStabilizationRepliesWithZeroTrxAreIgnored(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 0}
	rec := logx.NewRecording()
	c := NewCoordinator(self, net, rec)

	c.HandleReply(5, wire.KVMessage{TrxID: 0, Type: wire.Reply, Success: true})
	if len(rec.Events()) != 0 {
		t.Fatalf("trx_id 0 replies must be silently ignored, got %+v", rec.Events())
	}
}
