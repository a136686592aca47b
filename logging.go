package haw

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the structured logging interface threaded through RwWheel and
// Haw, the same go-kit/log.Logger contract frostdb.Table and frostdb.DB
// thread through their own constructors.
type Logger = log.Logger

// NewNopLogger returns a Logger that discards everything, for callers that
// don't want to wire one in but still need a non-nil value to pass around.
func NewNopLogger() Logger { return log.NewNopLogger() }

func logDebug(logger Logger, keyvals ...interface{}) {
	_ = level.Debug(logger).Log(keyvals...)
}

func logInfo(logger Logger, keyvals ...interface{}) {
	_ = level.Info(logger).Log(keyvals...)
}

func logWarn(logger Logger, keyvals ...interface{}) {
	_ = level.Warn(logger).Log(keyvals...)
}
