// Package logtest provides loggers for tests.
package logtest

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ernaz100/redmerce/internal/logger"
)

// New returns a Logger that writes through t.
func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// NewObserved returns a Logger whose entries can be inspected.
func NewObserved() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapAdapter(zap.New(core)), logs
}
