// Package logging holds the shared zap logger for the gavel binary.
//
// Log defaults to a no-op logger so library code and tests can log without
// initialization. Init replaces it with a console-encoded production logger
// (or a development logger when debug is set).
package logging

import (
	"go.uber.org/zap"
)

// Log is the process-wide logger.
var Log = zap.NewNop().Sugar()

// Init builds the real logger. Call once from the CLI entry point.
func Init(debug bool) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		panic("initializing logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = Log.Sync()
}
