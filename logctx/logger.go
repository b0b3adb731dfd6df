package logctx

import (
	"context"
	"io"
	"log/slog"
)

// ConsoleSinkName is the name the default console sink is attached under.
const ConsoleSinkName = "console"

// Logger is a named logging channel owned by a run. It wraps a slog.Logger
// whose handler is a Router, so sinks can be attached and detached while the
// logger is in use.
type Logger struct {
	name   string
	router *Router
	slog   *slog.Logger
}

// New creates a Logger with no sinks attached. Records are dropped until a
// sink is attached to its Router.
func New(name string) *Logger {
	router := NewRouter()
	return &Logger{
		name:   name,
		router: router,
		slog:   slog.New(router).With(slog.String(LoggerKey, name)),
	}
}

// NewWithConsole creates a Logger with a console sink attached under
// ConsoleSinkName, mirroring how a host framework's channels normally start
// out writing to a terminal.
func NewWithConsole(name string, w io.Writer, level slog.Leveler) *Logger {
	l := New(name)
	l.router.Attach(ConsoleSinkName, NewConsoleSink(w, level))
	return l
}

// Name returns the channel name.
func (l *Logger) Name() string { return l.name }

// Router returns the sink router backing this logger.
func (l *Logger) Router() *Router { return l.router }

// Slog returns the underlying slog.Logger for callers that want the raw API.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Debug logs at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Log logs at an arbitrary level with optional key-value pairs.
func (l *Logger) Log(level slog.Level, msg string, args ...any) {
	l.slog.Log(context.Background(), level, msg, args...)
}

// Close detaches and closes every sink on the logger's router.
func (l *Logger) Close() error {
	return l.router.Close()
}
