package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shibai/dht/internal/address"
)

// KVMsgType identifies the kind of key-value protocol message.
type KVMsgType int

const (
	Create KVMsgType = 0
	Read   KVMsgType = 1
	Update KVMsgType = 2
	Delete KVMsgType = 3
	Reply  KVMsgType = 4
	ReadReply KVMsgType = 5
)

func (t KVMsgType) String() string {
	switch t {
	case Create:
		return "CREATE"
	case Read:
		return "READ"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Reply:
		return "REPLY"
	case ReadReply:
		return "READREPLY"
	default:
		return fmt.Sprintf("KVMsgType(%d)", int(t))
	}
}

// ReplicaRole tags the role a replica plays for a given key.
type ReplicaRole int

const (
	Primary ReplicaRole = iota
	Secondary
	Tertiary
)

func (r ReplicaRole) String() string {
	switch r {
	case Primary:
		return "PRIMARY"
	case Secondary:
		return "SECONDARY"
	case Tertiary:
		return "TERTIARY"
	default:
		return fmt.Sprintf("ReplicaRole(%d)", int(r))
	}
}

// KVMessage is the key-value protocol message envelope. Only the fields
// relevant to Type are meaningful; see the wire format table in SPEC_FULL.md.
type KVMessage struct {
	TrxID   int64
	From    address.Endpoint
	Type    KVMsgType
	Key     string
	Value   string
	Role    ReplicaRole
	Success bool
}

const sep = "::"

// Encode serializes the message to its "trx::addr::type::..." wire form.
func (m KVMessage) Encode() string {
	head := fmt.Sprintf("%d%s%s%s%d", m.TrxID, sep, m.From.String(), sep, int(m.Type))

	switch m.Type {
	case Create, Update:
		return fmt.Sprintf("%s%s%s%s%s%s%d", head, sep, m.Key, sep, m.Value, sep, int(m.Role))
	case Read, Delete:
		return fmt.Sprintf("%s%s%s", head, sep, m.Key)
	case Reply:
		flag := 0
		if m.Success {
			flag = 1
		}
		return fmt.Sprintf("%s%s%d", head, sep, flag)
	case ReadReply:
		return fmt.Sprintf("%s%s%s", head, sep, m.Value)
	default:
		panic(fmt.Sprintf("wire: unknown KVMsgType %d", m.Type))
	}
}

// DecodeKVMessage parses the wire form produced by Encode.
func DecodeKVMessage(s string) (KVMessage, error) {
	parts := strings.SplitN(s, sep, 4)
	if len(parts) < 4 {
		return KVMessage{}, &DecodeError{Reason: "missing header fields", Data: []byte(s)}
	}

	trxID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return KVMessage{}, &DecodeError{Reason: "malformed trx id", Data: []byte(s)}
	}
	from, err := address.ParseEndpoint(parts[1])
	if err != nil {
		return KVMessage{}, &DecodeError{Reason: "malformed sender address", Data: []byte(s)}
	}
	typeCode, err := strconv.Atoi(parts[2])
	if err != nil {
		return KVMessage{}, &DecodeError{Reason: "malformed type code", Data: []byte(s)}
	}
	msgType := KVMsgType(typeCode)
	rest := parts[3]

	msg := KVMessage{TrxID: trxID, From: from, Type: msgType}

	switch msgType {
	case Create, Update:
		fields := strings.SplitN(rest, sep, 3)
		if len(fields) != 3 {
			return KVMessage{}, &DecodeError{Reason: "malformed create/update payload", Data: []byte(s)}
		}
		role, err := strconv.Atoi(fields[2])
		if err != nil {
			return KVMessage{}, &DecodeError{Reason: "malformed role code", Data: []byte(s)}
		}
		msg.Key = fields[0]
		msg.Value = fields[1]
		msg.Role = ReplicaRole(role)

	case Read, Delete:
		msg.Key = rest

	case Reply:
		switch rest {
		case "1":
			msg.Success = true
		case "0":
			msg.Success = false
		default:
			return KVMessage{}, &DecodeError{Reason: "malformed reply flag", Data: []byte(s)}
		}

	case ReadReply:
		msg.Value = rest

	default:
		return KVMessage{}, &DecodeError{Reason: fmt.Sprintf("unknown msg type %d", typeCode), Data: []byte(s)}
	}

	return msg, nil
}
