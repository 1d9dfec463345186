package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the engine and all of its packages.
// By default nothing is logged. Passing nil restores the silent default.
//
// Log levels used by the engine:
//   - [slog.LevelDebug]: per-frame diagnostics (flush sizes, draw ranges)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, pipeline registered)
//   - [slog.LevelWarn]: non-fatal issues (skipped frames, surface reconfiguration)
//
// Example:
//
//	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
