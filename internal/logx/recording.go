package logx

import (
	"fmt"
	"sync"

	"github.com/shibai/dht/internal/address"
)

// Event is a single recorded log call, flattened for easy assertions in
// tests that need to scrape the log the way the original test harness did.
type Event struct {
	Kind          string // "add", "remove", "create_success", "read_fail", "log", ...
	Self          address.Endpoint
	Other         address.Endpoint // for add/remove
	IsCoordinator bool
	Trx           int64
	Key           string
	Value         string
	Message       string
}

// Recording is a Logger that appends every call to an in-memory, mutex
// protected slice, so assertions can run concurrently with a driver that
// steps nodes in parallel goroutines.
type Recording struct {
	mu     sync.Mutex
	events []Event
}

func NewRecording() *Recording { return &Recording{} }

func (r *Recording) append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a snapshot of everything recorded so far.
func (r *Recording) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recording) LogNodeAdd(self, added address.Endpoint) {
	r.append(Event{Kind: "add", Self: self, Other: added})
}
func (r *Recording) LogNodeRemove(self, removed address.Endpoint) {
	r.append(Event{Kind: "remove", Self: self, Other: removed})
}

func (r *Recording) LogCreateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	r.append(Event{Kind: "create_success", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key, Value: value})
}
func (r *Recording) LogCreateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	r.append(Event{Kind: "create_fail", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key, Value: value})
}
func (r *Recording) LogReadSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	r.append(Event{Kind: "read_success", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key, Value: value})
}
func (r *Recording) LogReadFail(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	r.append(Event{Kind: "read_fail", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key})
}
func (r *Recording) LogUpdateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	r.append(Event{Kind: "update_success", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key, Value: value})
}
func (r *Recording) LogUpdateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	r.append(Event{Kind: "update_fail", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key, Value: value})
}
func (r *Recording) LogDeleteSuccess(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	r.append(Event{Kind: "delete_success", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key})
}
func (r *Recording) LogDeleteFail(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	r.append(Event{Kind: "delete_fail", Self: self, IsCoordinator: isCoordinator, Trx: trx, Key: key})
}

func (r *Recording) Log(self address.Endpoint, message string) {
	r.append(Event{Kind: "log", Self: self, Message: fmt.Sprintf("%s", message)})
}
