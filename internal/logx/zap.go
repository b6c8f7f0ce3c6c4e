package logx

import (
	"go.uber.org/zap"

	"github.com/shibai/dht/internal/address"
)

// ZapLogger is the production Logger implementation used by the CLI driver,
// following the same zap usage the teacher's distributed-queue service uses
// for its own structured logging.
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l}
}

func (z *ZapLogger) LogNodeAdd(self, added address.Endpoint) {
	z.l.Info("node add",
		zap.String("self", self.String()),
		zap.String("added", added.String()))
}

func (z *ZapLogger) LogNodeRemove(self, removed address.Endpoint) {
	z.l.Info("node remove",
		zap.String("self", self.String()),
		zap.String("removed", removed.String()))
}

func (z *ZapLogger) op(level string, self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	fields := []zap.Field{
		zap.String("self", self.String()),
		zap.Bool("is_coordinator", isCoordinator),
		zap.Int64("trx", trx),
		zap.String("key", key),
	}
	if value != "" {
		fields = append(fields, zap.String("value", value))
	}
	switch level {
	case "success":
		z.l.Info("op success", fields...)
	case "fail":
		z.l.Warn("op fail", fields...)
	}
}

func (z *ZapLogger) LogCreateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	z.op("success", self, isCoordinator, trx, key, value)
}
func (z *ZapLogger) LogCreateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	z.op("fail", self, isCoordinator, trx, key, value)
}
func (z *ZapLogger) LogReadSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	z.op("success", self, isCoordinator, trx, key, value)
}
func (z *ZapLogger) LogReadFail(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	z.op("fail", self, isCoordinator, trx, key, "")
}
func (z *ZapLogger) LogUpdateSuccess(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	z.op("success", self, isCoordinator, trx, key, value)
}
func (z *ZapLogger) LogUpdateFail(self address.Endpoint, isCoordinator bool, trx int64, key, value string) {
	z.op("fail", self, isCoordinator, trx, key, value)
}
func (z *ZapLogger) LogDeleteSuccess(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	z.op("success", self, isCoordinator, trx, key, "")
}
func (z *ZapLogger) LogDeleteFail(self address.Endpoint, isCoordinator bool, trx int64, key string) {
	z.op("fail", self, isCoordinator, trx, key, "")
}

func (z *ZapLogger) Log(self address.Endpoint, message string) {
	z.l.Debug(message, zap.String("self", self.String()))
}
