// Package logview reads run log files back into structured entries for
// filtering and export. It understands the compact line format the logctx
// text handler writes and is used by the logs/tail commands and by tests.
package logview

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pipework/log2file/errors"
)

// Entry is one parsed run-log line.
type Entry struct {
	// Time is the parsed timestamp. Run logs omit the year, so the year is
	// zero unless the file used the wide executor layout.
	Time time.Time `json:"time"`
	// Level is the normalized level name (DEBUG, INFO, WARN, ERROR).
	Level string `json:"level"`
	// Logger is the logger column, when present.
	Logger string `json:"logger,omitempty"`
	// Message is the rest of the line, including key=value attributes.
	Message string `json:"msg"`
	// Raw is the unparsed line.
	Raw string `json:"-"`
}

// lineRe matches both run-log layouts:
//
//	01-02 15:04:05 I main    message ...
//	2006-01-02 15:04:05 INFO    message ...
var lineRe = regexp.MustCompile(`^(\d{4}-)?(\d{2}-\d{2} \d{2}:\d{2}:\d{2}) (\S+)\s+(.*)$`)

// loggerRe matches a logger-name column at the start of the message part.
// The column is padded to 7 characters, so name plus padding is always 8.
var loggerRe = regexp.MustCompile(`^([a-z][a-z0-9_-]{0,6}) +`)

var levelNames = map[string]string{
	"D": "DEBUG", "I": "INFO", "W": "WARN", "E": "ERROR",
	"DEBUG": "DEBUG", "INFO": "INFO", "WARN": "WARN", "ERROR": "ERROR",
}

var levelOrder = map[string]int{
	"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3,
}

// ReadFile parses every line of a run log file. Unparseable lines are
// folded into the previous entry's message when possible (multi-line
// payloads) or skipped, so a partially corrupted log still loads.
func ReadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrNoLogFile, path)
		}
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Read(file)
}

// Read parses run-log lines from r.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	const maxScanTokenSize = 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, ok := parseLine(line)
		if !ok {
			if len(entries) > 0 {
				entries[len(entries)-1].Message += "\n" + line
				entries[len(entries)-1].Raw += "\n" + line
			}
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading run log: %w", err)
	}
	return entries, nil
}

// parseLine splits one line into an Entry.
func parseLine(line string) (Entry, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}

	level, ok := levelNames[m[3]]
	if !ok {
		return Entry{}, false
	}

	layout := "01-02 15:04:05"
	stamp := m[2]
	if m[1] != "" {
		layout = "2006-01-02 15:04:05"
		stamp = m[1] + m[2]
	}
	ts, err := time.Parse(layout, stamp)
	if err != nil {
		return Entry{}, false
	}

	entry := Entry{Time: ts, Level: level, Message: m[4], Raw: line}
	// Only the short layout carries a logger column; the wide executor
	// layout goes straight from level to message.
	if m[1] == "" {
		if lm := loggerRe.FindStringSubmatch(m[4]); lm != nil && len(lm[0]) == 8 {
			entry.Logger = lm[1]
			entry.Message = m[4][len(lm[0]):]
		}
	}
	return entry, true
}

// Query defines filter criteria for run-log entries. Zero values mean "no
// filtering" for each field.
type Query struct {
	// Level keeps entries at or above this level.
	Level string
	// Since keeps entries at or after this time.
	Since time.Time
	// Until keeps entries at or before this time.
	Until time.Time
	// Contains keeps entries whose message contains this substring.
	Contains string
	// Pattern keeps entries whose raw line matches this expression.
	Pattern *regexp.Regexp
}

// Filter returns the entries matching q, preserving order.
func Filter(entries []Entry, q Query) []Entry {
	minLevel := -1
	if q.Level != "" {
		if n, ok := levelOrder[strings.ToUpper(q.Level)]; ok {
			minLevel = n
		}
	}

	var out []Entry
	for _, e := range entries {
		if minLevel >= 0 && levelOrder[e.Level] < minLevel {
			continue
		}
		if !q.Since.IsZero() && e.Time.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && e.Time.After(q.Until) {
			continue
		}
		if q.Contains != "" && !strings.Contains(e.Message, q.Contains) {
			continue
		}
		if q.Pattern != nil && !q.Pattern.MatchString(e.Raw) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Export writes entries to w in the given format: "json", "text" or "csv".
func Export(w io.Writer, entries []Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, e.Raw); err != nil {
				return err
			}
		}
		return nil
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"time", "level", "logger", "message"}); err != nil {
			return err
		}
		for _, e := range entries {
			rec := []string{e.Time.Format(time.RFC3339), e.Level, e.Logger, e.Message}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// LatestRunLog resolves the newest main log file for a pipeline. It prefers
// the run-latest.log link and falls back to the lexically newest
// run-*.log when the link is missing or dangling.
func LatestRunLog(workdir, pipeline string) (string, error) {
	logDir := filepath.Join(workdir, pipeline, ".logs")

	link := filepath.Join(logDir, "run-latest.log")
	if resolved, err := filepath.EvalSymlinks(link); err == nil {
		return resolved, nil
	}

	matches, err := filepath.Glob(filepath.Join(logDir, "run-*.log"))
	if err != nil {
		return "", err
	}
	var runs []string
	for _, m := range matches {
		if filepath.Base(m) != "run-latest.log" {
			runs = append(runs, m)
		}
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w in %s", errors.ErrNoLogFile, logDir)
	}
	sort.Strings(runs)
	return runs[len(runs)-1], nil
}
