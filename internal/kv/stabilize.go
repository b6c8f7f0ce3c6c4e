package kv

import (
	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/ring"
	"github.com/shibai/dht/internal/store"
	"github.com/shibai/dht/internal/wire"
)

// Stabilize reconciles a node's locally-stored replicas after its
// neighborhood changes. old is the neighborhood captured immediately
// before the ring was rebuilt; new is the freshly computed one. All
// stabilization traffic carries trx_id 0, which the coordinator ignores.
func Stabilize(self address.Endpoint, st *store.Store, net *netsim.Network, old, new ring.Neighborhood) {
	if !new.Valid {
		return
	}

	pre1, pre2 := new.HaveReplicasOf[0], new.HaveReplicasOf[1]
	post1, post2 := new.HasMyReplicas[0], new.HasMyReplicas[1]

	var oldPre1, oldPre2, oldPost1, oldPost2 address.Endpoint
	if old.Valid {
		oldPre1, oldPre2 = old.HaveReplicasOf[0], old.HaveReplicasOf[1]
		oldPost1, oldPost2 = old.HasMyReplicas[0], old.HasMyReplicas[1]
	}

	entries := st.Entries()

	switch {
	case pre2 == oldPre1 && pre2 != oldPre2:
		// Exactly the immediate predecessor failed; the farther one steps in.
		for key, e := range entries {
			if e.Role != wire.Secondary {
				continue
			}
			st.Reassign(key, wire.Primary)
			send(net, self, pre1, wire.Update, key, e.Value, wire.Secondary)
			send(net, self, pre2, wire.Create, key, e.Value, wire.Tertiary)
		}

	case pre1 != oldPre1 && pre2 != oldPre2:
		// Both predecessors changed: every Secondary/Tertiary entry is promoted
		// and re-replicated from scratch.
		for key, e := range entries {
			if e.Role != wire.Secondary && e.Role != wire.Tertiary {
				continue
			}
			origRole := e.Role
			st.Reassign(key, wire.Primary)

			secondaryMsg := wire.Create
			if origRole == wire.Secondary {
				secondaryMsg = wire.Update
			}
			send(net, self, pre1, secondaryMsg, key, e.Value, wire.Secondary)
			send(net, self, pre2, wire.Create, key, e.Value, wire.Tertiary)
		}

	case pre1 != oldPre1 && pre2 == oldPre2:
		// Only the farther predecessor changed; repaired symmetrically to the
		// equivalent successor-side single-hop case below.
		for key, e := range entries {
			if e.Role != wire.Secondary {
				continue
			}
			send(net, self, pre1, wire.Update, key, e.Value, wire.Secondary)
			send(net, self, pre2, wire.Create, key, e.Value, wire.Tertiary)
		}
	}

	switch {
	case post2 != oldPost2 && post1 == oldPost1:
		// Only the far successor changed: replace its Tertiary copy.
		for key, e := range entries {
			if e.Role != wire.Primary {
				continue
			}
			send(net, self, post2, wire.Create, key, e.Value, wire.Tertiary)
		}

	case post1 != oldPost1 && post1 == oldPost2:
		// Near successor failed; the far one shifted into the near slot.
		for key, e := range entries {
			if e.Role != wire.Primary {
				continue
			}
			send(net, self, post1, wire.Update, key, e.Value, wire.Secondary)
			send(net, self, post2, wire.Create, key, e.Value, wire.Tertiary)
		}

	case post1 != oldPost1 && post2 != oldPost2:
		// Both successors changed: push fresh copies to both.
		for key, e := range entries {
			if e.Role != wire.Primary {
				continue
			}
			send(net, self, post1, wire.Create, key, e.Value, wire.Secondary)
			send(net, self, post2, wire.Create, key, e.Value, wire.Tertiary)
		}
	}
}

func send(net *netsim.Network, self, to address.Endpoint, msgType wire.KVMsgType, key, value string, role wire.ReplicaRole) {
	msg := wire.KVMessage{TrxID: 0, From: self, Type: msgType, Key: key, Value: value, Role: role}
	net.Send(self, to, netsim.KVLayer, []byte(msg.Encode()))
}
