package membership

import "github.com/shibai/dht/internal/address"

// Entry is one row of a membership table: a peer's identity, its most
// recently observed heartbeat, and the local tick at which this node last
// refreshed that observation.
type Entry struct {
	Endpoint       address.Endpoint
	Heartbeat      int64
	LocalTimestamp int64
}

// Table is an ordered membership view: at most one Entry per endpoint id.
type Table struct {
	rows  []Entry
	index map[uint32]int
}

// NewTable creates an empty membership table.
func NewTable() *Table {
	return &Table{index: map[uint32]int{}}
}

// Get returns the entry for the given endpoint id, if present.
func (t *Table) Get(id uint32) (Entry, bool) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, false
	}
	return t.rows[i], true
}

// Put inserts or overwrites the entry for e.Endpoint.ID.
func (t *Table) Put(e Entry) {
	if i, ok := t.index[e.Endpoint.ID]; ok {
		t.rows[i] = e
		return
	}
	t.index[e.Endpoint.ID] = len(t.rows)
	t.rows = append(t.rows, e)
}

// Remove deletes the entry for the given endpoint id, if present. Reports
// whether an entry was actually removed.
func (t *Table) Remove(id uint32) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	last := len(t.rows) - 1
	moved := t.rows[last]
	t.rows[i] = moved
	t.rows = t.rows[:last]
	delete(t.index, id)
	if i != last {
		t.index[moved.Endpoint.ID] = i
	}
	return true
}

// Entries returns a snapshot of all rows in the table. The returned slice
// must not be mutated by the caller.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.rows)
}
