package multiout

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/multiout/scenegraph"
	"github.com/gogpu/multiout/swapchain"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for multiout and its sub-packages.
// By default, multiout produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by multiout:
//   - [slog.LevelDebug]: per-cycle diagnostics (polish, frame parameters, commits)
//   - [slog.LevelInfo]: lifecycle events (attach, detach, shared scale changes)
//   - [slog.LevelWarn]: outputs skipped for a cycle (acquire, bind, render or commit failures)
//
// Example:
//
//	multiout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	swapchain.SetLogger(l)
	scenegraph.SetLogger(l)
}

// Logger returns the current logger used by multiout.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
