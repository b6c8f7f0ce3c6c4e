// Package kv implements the client-side coordinator, replica-side server,
// and stabilization logic of the key-value layer.
package kv

import (
	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/wire"
)

// opKind identifies which client operation a transaction is tracking.
type opKind int

const (
	opCreate opKind = iota
	opRead
	opUpdate
	opDelete
)

// transaction is the coordinator-side bookkeeping for one outstanding
// client call. A single map keyed by trx id replaces the historical three
// parallel maps (quorum counts, outgoing messages, outgoing timestamps).
type transaction struct {
	trxID     int64
	op        opKind
	key       string
	value     string
	issuedAt  int64
	traceID   string
	successes int
	failures  int
	replies   int
	readValue string
	readSeen  bool
}

// closed reports whether this transaction has collected enough replies to
// resolve, independent of the timeout sweep.
func (t *transaction) closed() bool {
	if t.op == opRead {
		return t.readSeen && t.replies >= 2
	}
	return t.replies >= 2
}

// quorum reports whether at least two independently-successful replies were
// recorded. This intentionally does not reuse a single cached flag: each
// reply's own success bit is tallied as it arrives.
func (t *transaction) quorum() bool {
	return t.successes >= 2
}

func (t *transaction) recordReply(success bool) {
	t.replies++
	if success {
		t.successes++
	} else {
		t.failures++
	}
}

func (t *transaction) recordReadReply(value string) {
	t.replies++
	t.readSeen = true
	t.readValue = value
}

// target is a single outbound per-replica request the coordinator issued,
// used only for constructing the wire message; not retained past send.
type target struct {
	endpoint address.Endpoint
	role     wire.ReplicaRole
}
