// Package wire implements the binary membership-protocol encoding and the
// ASCII key-value protocol encoding exchanged over the emulated network.
//
// Both formats intentionally diverge from the historical packed-struct and
// string-concatenation layouts: messages are typed Go values with explicit,
// total Encode methods and fallible Decode methods, in the same
// offset-driven shape used for other binary record types in this codebase's
// lineage.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/shibai/dht/internal/address"
)

// MLMsgType identifies the kind of membership-protocol message.
type MLMsgType uint8

const (
	JoinReq MLMsgType = 0
	JoinRep MLMsgType = 1
	Gossip  MLMsgType = 2
)

func (t MLMsgType) String() string {
	switch t {
	case JoinReq:
		return "JOINREQ"
	case JoinRep:
		return "JOINREP"
	case Gossip:
		return "GOSSIP"
	default:
		return fmt.Sprintf("MLMsgType(%d)", uint8(t))
	}
}

// DecodeError wraps a malformed-input failure with the offending bytes, so
// callers can log it without the decoder having to know about logging.
type DecodeError struct {
	Reason string
	Data   []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode failed: %s (%d bytes)", e.Reason, len(e.Data))
}

// memberEntrySize is the size of the on-wire form of one MemberEntry: id (4),
// port (2), 2-byte pad, heartbeat (8), timestamp (8), all big-endian.
const memberEntrySize = 24

// MLMember is a single membership-table row as carried on the wire.
type MLMember struct {
	Endpoint  address.Endpoint
	Heartbeat int64
	Timestamp int64
}

// MLMessage is the membership-protocol message envelope.
type MLMessage struct {
	Type      MLMsgType
	Sender    address.Endpoint
	Heartbeat int64      // only meaningful for JoinReq
	Members   []MLMember // only meaningful for JoinRep/Gossip
}

// Encode serializes the message to its wire form.
func (m MLMessage) Encode() []byte {
	switch m.Type {
	case JoinReq:
		buf := make([]byte, 1+6+8)
		buf[0] = byte(m.Type)
		senderBytes := m.Sender.Bytes()
		copy(buf[1:7], senderBytes[:])
		binary.BigEndian.PutUint64(buf[7:15], uint64(m.Heartbeat))
		return buf
	case JoinRep, Gossip:
		buf := make([]byte, 1+6+2+len(m.Members)*memberEntrySize)
		buf[0] = byte(m.Type)
		senderBytes := m.Sender.Bytes()
		copy(buf[1:7], senderBytes[:])
		binary.BigEndian.PutUint16(buf[7:9], uint16(len(m.Members)))
		off := 9
		for _, mem := range m.Members {
			memBytes := mem.Endpoint.Bytes()
			binary.BigEndian.PutUint32(buf[off:off+4], binary.BigEndian.Uint32(memBytes[0:4]))
			binary.BigEndian.PutUint16(buf[off+4:off+6], binary.BigEndian.Uint16(memBytes[4:6]))
			// bytes off+6:off+8 are the reserved pad, left zero.
			binary.BigEndian.PutUint64(buf[off+8:off+16], uint64(mem.Heartbeat))
			binary.BigEndian.PutUint64(buf[off+16:off+24], uint64(mem.Timestamp))
			off += memberEntrySize
		}
		return buf
	default:
		panic(fmt.Sprintf("wire: unknown MLMsgType %d", m.Type))
	}
}

// DecodeMLMessage parses the wire form produced by Encode.
func DecodeMLMessage(data []byte) (MLMessage, error) {
	if len(data) < 7 {
		return MLMessage{}, &DecodeError{Reason: "too short for header", Data: data}
	}
	msgType := MLMsgType(data[0])
	var senderBytes [6]byte
	copy(senderBytes[:], data[1:7])
	sender := address.EndpointFromBytes(senderBytes)

	switch msgType {
	case JoinReq:
		if len(data) < 15 {
			return MLMessage{}, &DecodeError{Reason: "joinreq too short", Data: data}
		}
		hb := int64(binary.BigEndian.Uint64(data[7:15]))
		return MLMessage{Type: JoinReq, Sender: sender, Heartbeat: hb}, nil

	case JoinRep, Gossip:
		if len(data) < 9 {
			return MLMessage{}, &DecodeError{Reason: "member header too short", Data: data}
		}
		count := int(binary.BigEndian.Uint16(data[7:9]))
		want := 9 + count*memberEntrySize
		if len(data) < want {
			return MLMessage{}, &DecodeError{Reason: "member array truncated", Data: data}
		}
		members := make([]MLMember, count)
		off := 9
		for i := 0; i < count; i++ {
			id := binary.BigEndian.Uint32(data[off : off+4])
			port := binary.BigEndian.Uint16(data[off+4 : off+6])
			hb := int64(binary.BigEndian.Uint64(data[off+8 : off+16]))
			ts := int64(binary.BigEndian.Uint64(data[off+16 : off+24]))
			members[i] = MLMember{
				Endpoint:  address.Endpoint{ID: id, Port: port},
				Heartbeat: hb,
				Timestamp: ts,
			}
			off += memberEntrySize
		}
		return MLMessage{Type: msgType, Sender: sender, Members: members}, nil

	default:
		return MLMessage{}, &DecodeError{Reason: fmt.Sprintf("unknown msg type %d", msgType), Data: data}
	}
}
