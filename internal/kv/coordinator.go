package kv

import (
	"github.com/rs/xid"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/ring"
	"github.com/shibai/dht/internal/wire"
)

// timeoutTicks is the coordinator-side deadline, in simulator ticks, after
// which an unresolved transaction is logged as a failure and closed.
const timeoutTicks = 10

// Coordinator is the client-facing half of a node's key-value role: it
// issues CREATE/READ/UPDATE/DELETE to the three replicas of a key and
// resolves the outcome from their replies.
type Coordinator struct {
	self   address.Endpoint
	net    *netsim.Network
	logger logx.Logger

	nextTrx int64
	txns    map[int64]*transaction
}

// NewCoordinator creates a coordinator bound to self's outbound network and
// logging sink.
func NewCoordinator(self address.Endpoint, net *netsim.Network, logger logx.Logger) *Coordinator {
	return &Coordinator{
		self:   self,
		net:    net,
		logger: logger,
		txns:   make(map[int64]*transaction),
	}
}

func (c *Coordinator) issue(now int64, op opKind, key, value string) int64 {
	c.nextTrx++
	trxID := c.nextTrx
	c.txns[trxID] = &transaction{
		trxID:    trxID,
		op:       op,
		key:      key,
		value:    value,
		issuedAt: now,
		traceID:  xid.New().String(),
	}
	return trxID
}

// Create issues a CREATE for key/value against repl's three replicas.
func (c *Coordinator) Create(now int64, key, value string, repl ring.Replicas) int64 {
	trxID := c.issue(now, opCreate, key, value)
	c.sendRoled(trxID, wire.Create, key, value, repl)
	return trxID
}

// Update issues an UPDATE for key/value against repl's three replicas.
func (c *Coordinator) Update(now int64, key, value string, repl ring.Replicas) int64 {
	trxID := c.issue(now, opUpdate, key, value)
	c.sendRoled(trxID, wire.Update, key, value, repl)
	return trxID
}

// Read issues a READ for key against repl's three replicas.
func (c *Coordinator) Read(now int64, key string, repl ring.Replicas) int64 {
	trxID := c.issue(now, opRead, key, "")
	c.sendPlain(trxID, wire.Read, key, repl)
	return trxID
}

// Delete issues a DELETE for key against repl's three replicas.
func (c *Coordinator) Delete(now int64, key string, repl ring.Replicas) int64 {
	trxID := c.issue(now, opDelete, key, "")
	c.sendPlain(trxID, wire.Delete, key, repl)
	return trxID
}

func (c *Coordinator) sendRoled(trxID int64, msgType wire.KVMsgType, key, value string, repl ring.Replicas) {
	for _, t := range []target{
		{repl.Primary, wire.Primary},
		{repl.Secondary, wire.Secondary},
		{repl.Tertiary, wire.Tertiary},
	} {
		msg := wire.KVMessage{TrxID: trxID, From: c.self, Type: msgType, Key: key, Value: value, Role: t.role}
		c.net.Send(c.self, t.endpoint, netsim.KVLayer, []byte(msg.Encode()))
	}
}

func (c *Coordinator) sendPlain(trxID int64, msgType wire.KVMsgType, key string, repl ring.Replicas) {
	for _, ep := range []address.Endpoint{repl.Primary, repl.Secondary, repl.Tertiary} {
		msg := wire.KVMessage{TrxID: trxID, From: c.self, Type: msgType, Key: key}
		c.net.Send(c.self, ep, netsim.KVLayer, []byte(msg.Encode()))
	}
}

// HandleReply processes a REPLY or READREPLY addressed to this coordinator.
// Messages carrying trx_id 0 are stabilization acks and are silently
// ignored, since they never appear in the transaction table.
func (c *Coordinator) HandleReply(now int64, msg wire.KVMessage) {
	if msg.TrxID == 0 {
		return
	}
	txn, ok := c.txns[msg.TrxID]
	if !ok {
		return
	}

	switch msg.Type {
	case wire.ReadReply:
		txn.recordReadReply(msg.Value)
	case wire.Reply:
		txn.recordReply(msg.Success)
	default:
		return
	}

	if txn.closed() {
		c.resolve(txn)
		delete(c.txns, msg.TrxID)
	}
}

// SweepTimeouts closes every transaction issued more than timeoutTicks ago,
// logging it as a coordinator-side failure.
func (c *Coordinator) SweepTimeouts(now int64) {
	for trxID, txn := range c.txns {
		if now-txn.issuedAt > timeoutTicks {
			c.logger.Log(c.self, "trace="+txn.traceID+" transaction timed out")
			c.logFailure(txn)
			delete(c.txns, trxID)
		}
	}
}

func (c *Coordinator) resolve(txn *transaction) {
	c.logger.Log(c.self, "trace="+txn.traceID+" resolving transaction")
	switch txn.op {
	case opRead:
		if txn.readValue == "" {
			c.logger.LogReadFail(c.self, true, txn.trxID, txn.key)
		} else {
			c.logger.LogReadSuccess(c.self, true, txn.trxID, txn.key, txn.readValue)
		}
	default:
		if txn.quorum() {
			c.logSuccess(txn)
		} else {
			c.logFailure(txn)
		}
	}
}

func (c *Coordinator) logSuccess(txn *transaction) {
	switch txn.op {
	case opCreate:
		c.logger.LogCreateSuccess(c.self, true, txn.trxID, txn.key, txn.value)
	case opUpdate:
		c.logger.LogUpdateSuccess(c.self, true, txn.trxID, txn.key, txn.value)
	case opDelete:
		c.logger.LogDeleteSuccess(c.self, true, txn.trxID, txn.key)
	}
}

func (c *Coordinator) logFailure(txn *transaction) {
	switch txn.op {
	case opCreate:
		c.logger.LogCreateFail(c.self, true, txn.trxID, txn.key, txn.value)
	case opUpdate:
		c.logger.LogUpdateFail(c.self, true, txn.trxID, txn.key, txn.value)
	case opDelete:
		c.logger.LogDeleteFail(c.self, true, txn.trxID, txn.key)
	case opRead:
		c.logger.LogReadFail(c.self, true, txn.trxID, txn.key)
	}
}

// Pending reports how many transactions are currently outstanding, for
// tests and driver instrumentation.
func (c *Coordinator) Pending() int { return len(c.txns) }
