package pool

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger used by bucketpool, stored as an atomic
// pointer to allow safe concurrent reads and writes. Named "logger" instead
// of "log" to avoid shadowing the stdlib "log" package.
//
// A nil value means no custom logger has been set; Logger() falls back to a
// cached default derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// bucketpool component attribute) so it is not re-created on every Logger()
// call.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger, falling back to a cached
// logger derived from slog.Default() if no custom logger has been set via
// SetLogger. Safe to call from multiple goroutines.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "bucketpool")
}

// SetLogger replaces the package-level logger used by bucketpool. If l is
// nil, the logger resets to the default, re-derived from slog.Default() on
// the next Logger() call.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
