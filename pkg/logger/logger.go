// Package logger provides a process-wide structured logger. Callers use the
// package-level functions directly; Initialize configures the backing zap
// logger once at startup (normally from the CLI's PersistentPreRun).
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.SugaredLogger]

// Initialize configures the process-wide logger. debug enables verbose,
// human-readable console output; otherwise a quieter production encoder is
// used. Safe to call more than once; the most recent call wins.
func Initialize(debug bool) {
	var cfg zap.Config
	if debug || os.Getenv("ACP_DEBUG") != "" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.DisableStacktrace = !debug

	l, err := cfg.Build()
	if err != nil {
		// Fall back to a minimal logger rather than leaving the process
		// without one.
		l = zap.NewNop()
	}
	current.Store(l.Sugar())
}

func get() *zap.SugaredLogger {
	if l := current.Load(); l != nil {
		return l
	}
	// Lazily initialize with sensible defaults so packages that log before
	// Initialize is called (e.g. in tests) don't panic.
	Initialize(false)
	return current.Load()
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { get().Debugf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { get().Infof(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { get().Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Panicf logs a formatted message at panic level, then panics.
func Panicf(format string, args ...any) { get().Panicf(format, args...) }

// Info logs a message at info level.
func Info(args ...any) { get().Info(args...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	if l := current.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
