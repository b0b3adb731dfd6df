package logctx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SinkKind classifies sinks so the router can strip file sinks without
// knowing who installed them.
type SinkKind int

const (
	// KindConsole is a sink writing to a terminal or other stream.
	KindConsole SinkKind = iota
	// KindFile is a sink writing to a file this process opened.
	KindFile
)

// String returns the string representation of the sink kind.
func (k SinkKind) String() string {
	switch k {
	case KindConsole:
		return "console"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Sink is an attachable log destination: a slog.Handler that can be closed
// and that knows what kind of destination it writes to.
type Sink interface {
	slog.Handler
	io.Closer
	Kind() SinkKind
}

// FileSinkOptions configures a FileSink.
type FileSinkOptions struct {
	// Append opens the file in append mode instead of truncating it.
	Append bool
	// Level is the minimum level to write. Nil means slog.LevelInfo.
	Level slog.Leveler
	// TimeLayout formats timestamps. Empty means the TextHandler default.
	TimeLayout string
	// LevelWidth is the printed level name width. Zero means the default.
	LevelWidth int
	// StripMarkup removes ANSI escape sequences before writing.
	StripMarkup bool
	// OmitLogger drops the logger-name column from each line.
	OmitLogger bool
}

// FileSink writes run-log lines to a file. The file is created eagerly so
// that anything linking to it (run-latest.log) never dangles.
type FileSink struct {
	*TextHandler

	mu   sync.Mutex
	file *os.File
	path string
}

// NewFileSink opens path for writing and returns a sink over it. The parent
// directory must already exist. Truncate mode is the default; set
// opts.Append to preserve existing content.
func NewFileSink(path string, opts FileSinkOptions) (*FileSink, error) {
	flag := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileSink{
		TextHandler: NewTextHandler(file, TextOptions{
			Level:       opts.Level,
			TimeLayout:  opts.TimeLayout,
			LevelWidth:  opts.LevelWidth,
			StripMarkup: opts.StripMarkup,
			OmitLogger:  opts.OmitLogger,
		}),
		file: file,
		path: path,
	}, nil
}

// Kind implements Sink.
func (s *FileSink) Kind() SinkKind { return KindFile }

// Path returns the file path this sink writes to.
func (s *FileSink) Path() string { return s.path }

// Name returns the base name of the log file.
func (s *FileSink) Name() string { return filepath.Base(s.path) }

// Close syncs and closes the underlying file. Closing twice is a no-op.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	s.file = nil
	return nil
}

// ConsoleSink writes run-log lines to an arbitrary stream, normally a
// terminal. Closing it is a no-op: the sink does not own the stream.
type ConsoleSink struct {
	*TextHandler
}

// NewConsoleSink creates a console sink writing to w at the given level.
func NewConsoleSink(w io.Writer, level slog.Leveler) *ConsoleSink {
	return &ConsoleSink{
		TextHandler: NewTextHandler(w, TextOptions{Level: level}),
	}
}

// Kind implements Sink.
func (s *ConsoleSink) Kind() SinkKind { return KindConsole }

// Close implements Sink. The stream is not owned by the sink.
func (s *ConsoleSink) Close() error { return nil }
