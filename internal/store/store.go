// Package store implements the replica-local key-value store: a flat map
// from key to a "value:timestamp:role" encoded entry.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shibai/dht/internal/wire"
)

// Entry is the decoded form of one stored value.
type Entry struct {
	Value     string
	Timestamp int64
	Role      wire.ReplicaRole
}

func encode(e Entry) string {
	return fmt.Sprintf("%s:%d:%d", e.Value, e.Timestamp, int(e.Role))
}

func decode(s string) (Entry, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Entry{}, fmt.Errorf("store: malformed entry %q", s)
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("store: malformed timestamp in %q: %w", s, err)
	}
	role, err := strconv.Atoi(parts[2])
	if err != nil {
		return Entry{}, fmt.Errorf("store: malformed role in %q: %w", s, err)
	}
	return Entry{Value: parts[0], Timestamp: ts, Role: wire.ReplicaRole(role)}, nil
}

// Store is the flat per-node key-value table.
type Store struct {
	rows map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{rows: make(map[string]string)}
}

// Len reports how many keys are currently stored.
func (s *Store) Len() int { return len(s.rows) }

// Create inserts key iff absent, returning false if it already exists.
func (s *Store) Create(key, value string, timestamp int64, role wire.ReplicaRole) bool {
	if _, ok := s.rows[key]; ok {
		return false
	}
	s.rows[key] = encode(Entry{Value: value, Timestamp: timestamp, Role: role})
	return true
}

// Update overwrites key's entry iff present, returning false otherwise.
// Like Create, it always reconstructs the entry from the given value,
// timestamp, and role rather than preserving whatever role was stored before.
func (s *Store) Update(key, value string, timestamp int64, role wire.ReplicaRole) bool {
	if _, ok := s.rows[key]; !ok {
		return false
	}
	s.rows[key] = encode(Entry{Value: value, Timestamp: timestamp, Role: role})
	return true
}

// Read returns the stored value for key, or "" if absent.
func (s *Store) Read(key string) (string, bool) {
	raw, ok := s.rows[key]
	if !ok {
		return "", false
	}
	e, err := decode(raw)
	if err != nil {
		return "", false
	}
	return e.Value, true
}

// Delete removes key, returning false if it was absent.
func (s *Store) Delete(key string) bool {
	if _, ok := s.rows[key]; !ok {
		return false
	}
	delete(s.rows, key)
	return true
}

// Entries returns every key with its decoded entry, for reconciliation
// during stabilization.
func (s *Store) Entries() map[string]Entry {
	out := make(map[string]Entry, len(s.rows))
	for k, raw := range s.rows {
		if e, err := decode(raw); err == nil {
			out[k] = e
		}
	}
	return out
}

// Reassign overwrites key's role in place, used when promoting a replica
// during stabilization without touching value or timestamp.
func (s *Store) Reassign(key string, role wire.ReplicaRole) bool {
	raw, ok := s.rows[key]
	if !ok {
		return false
	}
	e, err := decode(raw)
	if err != nil {
		return false
	}
	e.Role = role
	s.rows[key] = encode(e)
	return true
}
