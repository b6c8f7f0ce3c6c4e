package kv

import (
	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/store"
	"github.com/shibai/dht/internal/wire"
)

// Server is the replica-facing half of a node's key-value role: it holds
// the local store and answers CREATE/READ/UPDATE/DELETE requests routed to
// it by any coordinator in the ring.
type Server struct {
	self   address.Endpoint
	store  *store.Store
	net    *netsim.Network
	logger logx.Logger
}

// NewServer creates a server over a fresh local store.
func NewServer(self address.Endpoint, net *netsim.Network, logger logx.Logger) *Server {
	return &Server{self: self, store: store.New(), net: net, logger: logger}
}

// Store exposes the underlying local store, e.g. for stabilization.
func (s *Server) Store() *store.Store { return s.store }

// Handle dispatches a single client-originated request to the matching
// local-store operation and replies to the originator.
func (s *Server) Handle(now int64, msg wire.KVMessage) {
	switch msg.Type {
	case wire.Create:
		s.handleCreate(now, msg)
	case wire.Update:
		s.handleUpdate(now, msg)
	case wire.Read:
		s.handleRead(msg)
	case wire.Delete:
		s.handleDelete(msg)
	}
}

func (s *Server) reply(to address.Endpoint, trxID int64, success bool) {
	msg := wire.KVMessage{TrxID: trxID, From: s.self, Type: wire.Reply, Success: success}
	s.net.Send(s.self, to, netsim.KVLayer, []byte(msg.Encode()))
}

func (s *Server) handleCreate(now int64, msg wire.KVMessage) {
	ok := s.store.Create(msg.Key, msg.Value, now, msg.Role)
	s.reply(msg.From, msg.TrxID, ok)
	if ok {
		s.logger.LogCreateSuccess(s.self, false, msg.TrxID, msg.Key, msg.Value)
	} else {
		s.logger.LogCreateFail(s.self, false, msg.TrxID, msg.Key, msg.Value)
	}
}

func (s *Server) handleUpdate(now int64, msg wire.KVMessage) {
	ok := s.store.Update(msg.Key, msg.Value, now, msg.Role)
	s.reply(msg.From, msg.TrxID, ok)
	if ok {
		s.logger.LogUpdateSuccess(s.self, false, msg.TrxID, msg.Key, msg.Value)
	} else {
		s.logger.LogUpdateFail(s.self, false, msg.TrxID, msg.Key, msg.Value)
	}
}

func (s *Server) handleRead(msg wire.KVMessage) {
	value, ok := s.store.Read(msg.Key)
	reply := wire.KVMessage{TrxID: msg.TrxID, From: s.self, Type: wire.ReadReply, Value: value}
	s.net.Send(s.self, msg.From, netsim.KVLayer, []byte(reply.Encode()))
	if ok {
		s.logger.LogReadSuccess(s.self, false, msg.TrxID, msg.Key, value)
	} else {
		s.logger.LogReadFail(s.self, false, msg.TrxID, msg.Key)
	}
}

func (s *Server) handleDelete(msg wire.KVMessage) {
	ok := s.store.Delete(msg.Key)
	s.reply(msg.From, msg.TrxID, ok)
	if ok {
		s.logger.LogDeleteSuccess(s.self, false, msg.TrxID, msg.Key)
	} else {
		s.logger.LogDeleteFail(s.self, false, msg.TrxID, msg.Key)
	}
}
