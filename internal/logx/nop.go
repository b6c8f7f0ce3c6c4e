package logx

import "github.com/shibai/dht/internal/address"

// NopLogger discards every call. It is the default sink in unit tests, the
// way a discard logger backs tests that don't care about log output.
type NopLogger struct{}

func (NopLogger) LogNodeAdd(self, added address.Endpoint)    {}
func (NopLogger) LogNodeRemove(self, removed address.Endpoint) {}

func (NopLogger) LogCreateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
}
func (NopLogger) LogCreateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
}
func (NopLogger) LogReadSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
}
func (NopLogger) LogReadFail(self address.Endpoint, isCoordinator bool, trx int64, key string) {}
func (NopLogger) LogUpdateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
}
func (NopLogger) LogUpdateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
}
func (NopLogger) LogDeleteSuccess(self address.Endpoint, isCoordinator bool, trx int64, key string) {}
func (NopLogger) LogDeleteFail(self address.Endpoint, isCoordinator bool, trx int64, key string)    {}

func (NopLogger) Log(self address.Endpoint, message string) {}
