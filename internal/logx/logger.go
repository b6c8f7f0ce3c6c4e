// Package logx defines the Logger interface consumed by the membership and
// key-value layers, plus three concrete sinks: a no-op logger and a
// recording logger for tests, and a zap-backed logger for the CLI driver.
package logx

import "github.com/shibai/dht/internal/address"

// Logger is the externally supplied sink the core protocol logic calls into.
// It never makes decisions; it only observes them.
type Logger interface {
	LogNodeAdd(self, added address.Endpoint)
	LogNodeRemove(self, removed address.Endpoint)

	LogCreateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string)
	LogCreateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string)
	LogReadSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string)
	LogReadFail(self address.Endpoint, isCoordinator bool, trx int64, key string)
	LogUpdateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string)
	LogUpdateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string)
	LogDeleteSuccess(self address.Endpoint, isCoordinator bool, trx int64, key string)
	LogDeleteFail(self address.Endpoint, isCoordinator bool, trx int64, key string)

	Log(self address.Endpoint, message string)
}
