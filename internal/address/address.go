// Package address implements the fixed 6-byte endpoint identity shared by the
// membership and key-value layers, and the stable string hash used to place
// endpoints and keys on the consistent-hash ring.
package address

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Endpoint is the identity of a simulated node: a 4-byte id and a 2-byte port,
// exactly as carried on the wire. Endpoints are compared and hashed by value.
type Endpoint struct {
	ID   uint32
	Port uint16
}

// Bytes returns the 6-byte wire form of the endpoint: 4-byte id followed by
// 2-byte port, both big-endian.
func (e Endpoint) Bytes() [6]byte {
	var b [6]byte
	b[0] = byte(e.ID >> 24)
	b[1] = byte(e.ID >> 16)
	b[2] = byte(e.ID >> 8)
	b[3] = byte(e.ID)
	b[4] = byte(e.Port >> 8)
	b[5] = byte(e.Port)
	return b
}

// EndpointFromBytes reconstructs an Endpoint from its 6-byte wire form.
func EndpointFromBytes(b [6]byte) Endpoint {
	return Endpoint{
		ID:   uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		Port: uint16(b[4])<<8 | uint16(b[5]),
	}
}

// String renders the KV-wire address form "id:port".
func (e Endpoint) String() string {
	return fmt.Sprintf("%d:%d", e.ID, e.Port)
}

// ParseEndpoint parses the KV-wire address form "id:port".
func ParseEndpoint(s string) (Endpoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Endpoint{}, fmt.Errorf("address: malformed endpoint %q", s)
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Endpoint{}, fmt.Errorf("address: malformed endpoint id %q: %w", s, err)
	}
	port, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("address: malformed endpoint port %q: %w", s, err)
	}
	return Endpoint{ID: uint32(id), Port: uint16(port)}, nil
}

// Hash returns a stable process-local hash of an arbitrary string key, used
// both for hashing endpoints onto the ring and for hashing KV keys.
func Hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// RingPosition returns the endpoint's position on a ring of the given size,
// following the same "id.port string, then hash mod size" recipe the
// reference implementation used for its hashFunction.
func (e Endpoint) RingPosition(ringSize int) int {
	key := fmt.Sprintf("%d.%d", e.ID, e.Port)
	return int(Hash(key) % uint64(ringSize))
}

// KeyRingPosition returns a KV key's position on a ring of the given size.
func KeyRingPosition(key string, ringSize int) int {
	return int(Hash(key) % uint64(ringSize))
}
