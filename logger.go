package gscene

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for gscene and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by gscene:
//   - [slog.LevelDebug]: cache misses, buffer growth, pass scheduling
//   - [slog.LevelInfo]: device and renderer lifecycle
//   - [slog.LevelWarn]: aborted frames, objects excluded from a batch
//
// Example:
//
//	gscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages call this to share the
// same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
