package logctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// LoggerKey is the attribute key carrying the logger name. TextHandler
// renders it as a fixed-width column instead of a key=value pair.
const LoggerKey = "logger"

// TextOptions configures a TextHandler.
type TextOptions struct {
	// Level is the minimum level to emit. Nil means slog.LevelInfo.
	Level slog.Leveler
	// TimeLayout formats the record timestamp. Empty means "01-02 15:04:05".
	TimeLayout string
	// LevelWidth is the number of characters of the level name to print
	// (padded). Zero means the full name padded to 5.
	LevelWidth int
	// StripMarkup removes ANSI escape sequences from messages before
	// writing. Console output is often styled; log files should not be.
	StripMarkup bool
	// OmitLogger drops the logger-name column. Per-channel files don't
	// need it: the file path already identifies the channel.
	OmitLogger bool
}

// TextHandler is a slog.Handler that writes compact, human-readable run-log
// lines:
//
//	01-02 15:04:05 I main    pipeline started name=demo
//
// It is safe for concurrent use.
type TextHandler struct {
	opts   TextOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewTextHandler creates a TextHandler writing to w.
func NewTextHandler(w io.Writer, opts TextOptions) *TextHandler {
	if opts.TimeLayout == "" {
		opts.TimeLayout = "01-02 15:04:05"
	}
	return &TextHandler{
		opts: opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

// Enabled implements slog.Handler.
func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

// Handle implements slog.Handler.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		name  string
		pairs []string
	)

	appendAttr := func(a slog.Attr, prefix string) {
		if a.Key == LoggerKey && prefix == "" {
			name = a.Value.String()
			return
		}
		pairs = append(pairs, fmt.Sprintf("%s%s=%v", prefix, a.Key, a.Value.Any()))
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, a := range h.attrs {
		appendAttr(a, prefix)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a, prefix)
		return true
	})

	msg := r.Message
	if h.opts.StripMarkup {
		msg = ansi.Strip(msg)
	}

	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format(h.opts.TimeLayout))
		b.WriteByte(' ')
	}
	b.WriteString(h.formatLevel(r.Level))
	b.WriteByte(' ')
	if h.opts.OmitLogger {
		name = ""
	}
	if name != "" {
		fmt.Fprintf(&b, "%-7s ", name)
	}
	b.WriteString(msg)
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// formatLevel renders the level name at the configured width.
func (h *TextHandler) formatLevel(level slog.Level) string {
	name := level.String()
	width := h.opts.LevelWidth
	if width <= 0 {
		width = 5
	}
	if len(name) > width {
		name = name[:width]
	}
	return fmt.Sprintf("%-*s", width, name)
}

// WithAttrs implements slog.Handler.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return h2
}

// WithGroup implements slog.Handler.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(append([]string{}, h.groups...), name)
	return h2
}

// clone copies the handler, sharing the writer and its mutex.
func (h *TextHandler) clone() *TextHandler {
	return &TextHandler{
		opts:   h.opts,
		mu:     h.mu,
		w:      h.w,
		attrs:  h.attrs,
		groups: h.groups,
	}
}

// ParseLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo if the level string is not recognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevels returns the list of recognized log level strings.
func ValidLevels() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}
}
