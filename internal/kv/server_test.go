package kv

import (
	"testing"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/wire"
)

func TestServerCreateThenReadRoundTrips(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	client := address.Endpoint{ID: 2}
	net.Register(self)
	net.Register(client)

	rec := logx.NewRecording()
	s := NewServer(self, net, rec)

	s.Handle(10, wire.KVMessage{TrxID: 1, From: client, Type: wire.Create, Key: "k", Value: "v1", Role: wire.Primary})

	raw := net.DrainKV(client)
	if len(raw) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(raw))
	}
	reply, err := wire.DecodeKVMessage(string(raw[0]))
	if err != nil || reply.Type != wire.Reply || !reply.Success {
		t.Fatalf("expected successful create reply, got %+v err=%v", reply, err)
	}

	s.Handle(11, wire.KVMessage{TrxID: 2, From: client, Type: wire.Read, Key: "k"})
	raw = net.DrainKV(client)
	readReply, err := wire.DecodeKVMessage(string(raw[0]))
	if err != nil || readReply.Type != wire.ReadReply || readReply.Value != "v1" {
		t.Fatalf("expected read reply with stored value, got %+v err=%v", readReply, err)
	}
}

func TestServerCreateRejectsDuplicateKey(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	client := address.Endpoint{ID: 2}
	net.Register(self)
	net.Register(client)
	s := NewServer(self, net, logx.NopLogger{})

	s.Handle(0, wire.KVMessage{TrxID: 1, From: client, Type: wire.Create, Key: "k", Value: "v1", Role: wire.Primary})
	net.DrainKV(client)
	s.Handle(1, wire.KVMessage{TrxID: 2, From: client, Type: wire.Create, Key: "k", Value: "v2", Role: wire.Primary})

	raw := net.DrainKV(client)
	reply, _ := wire.DecodeKVMessage(string(raw[0]))
	if reply.Success {
		t.Fatal("duplicate create should fail")
	}
}

func TestServerReadMissingKeyReturnsEmptyValue(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	client := address.Endpoint{ID: 2}
	net.Register(self)
	net.Register(client)
	s := NewServer(self, net, logx.NopLogger{})

	s.Handle(0, wire.KVMessage{TrxID: 1, From: client, Type: wire.Read, Key: "nope"})
	raw := net.DrainKV(client)
	reply, _ := wire.DecodeKVMessage(string(raw[0]))
	if reply.Value != "" {
		t.Fatalf("expected empty value for missing key, got %q", reply.Value)
	}
}

func TestServerUpdateOverwritesStoredRole(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	client := address.Endpoint{ID: 2}
	net.Register(self)
	net.Register(client)
	s := NewServer(self, net, logx.NopLogger{})

	s.Handle(0, wire.KVMessage{TrxID: 1, From: client, Type: wire.Create, Key: "k", Value: "v1", Role: wire.Secondary})
	net.DrainKV(client)
	s.Handle(1, wire.KVMessage{TrxID: 2, From: client, Type: wire.Update, Key: "k", Value: "v2", Role: wire.Primary})
	net.DrainKV(client)

	entries := s.Store().Entries()
	e, ok := entries["k"]
	if !ok || e.Value != "v2" || e.Role != wire.Primary {
		t.Fatalf("update must overwrite both value and role like create does, got %+v ok=%v", e, ok)
	}
}

func TestServerDeleteRequiresExisting(t *testing.T) {
	net := netsim.New(1, netsim.FaultConfig{})
	self := address.Endpoint{ID: 1}
	client := address.Endpoint{ID: 2}
	net.Register(self)
	net.Register(client)
	s := NewServer(self, net, logx.NopLogger{})

	s.Handle(0, wire.KVMessage{TrxID: 1, From: client, Type: wire.Delete, Key: "nope"})
	raw := net.DrainKV(client)
	reply, _ := wire.DecodeKVMessage(string(raw[0]))
	if reply.Success {
		t.Fatal("delete of absent key should fail")
	}
}
