package logview

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pipework/log2file/errors"
)

const sampleLog = `01-02 10:00:00 D main    resolving inputs files=4
01-02 10:00:01 I main    pipeline started procs=3
01-02 10:00:02 I log2f   align: Progress 0✔ 1✘
01-02 10:00:03 W align   retrying job index=1
01-02 10:00:04 E align   job failed index=1
traceback line one
traceback line two
01-02 10:00:05 I main    pipeline finished
`

func TestRead(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	t.Run("parses every well-formed line", func(t *testing.T) {
		if len(entries) != 6 {
			t.Fatalf("got %d entries, want 6", len(entries))
		}
	})

	t.Run("extracts level and logger columns", func(t *testing.T) {
		e := entries[1]
		if e.Level != "INFO" || e.Logger != "main" {
			t.Errorf("entry = %+v", e)
		}
		if e.Message != "pipeline started procs=3" {
			t.Errorf("message = %q", e.Message)
		}
	})

	t.Run("folds continuation lines into the prior entry", func(t *testing.T) {
		e := entries[4]
		if e.Level != "ERROR" {
			t.Fatalf("entry = %+v", e)
		}
		if !strings.Contains(e.Message, "traceback line one") ||
			!strings.Contains(e.Message, "traceback line two") {
			t.Errorf("continuation lost: %q", e.Message)
		}
	})

	t.Run("parses the wide executor layout", func(t *testing.T) {
		got, err := Read(strings.NewReader("2024-01-02 10:00:00 INFO    submitting jobs count=5\n"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d entries", len(got))
		}
		e := got[0]
		if e.Level != "INFO" || e.Logger != "" {
			t.Errorf("entry = %+v", e)
		}
		if e.Time.Year() != 2024 {
			t.Errorf("year not parsed: %v", e.Time)
		}
		if e.Message != "submitting jobs count=5" {
			t.Errorf("message = %q", e.Message)
		}
	})

	t.Run("wide layout never yields a logger column", func(t *testing.T) {
		got, err := Read(strings.NewReader("2024-01-01 10:00:00 INFO    started alignment\n"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got[0].Logger != "" {
			t.Errorf("logger = %q, want empty", got[0].Logger)
		}
		if got[0].Message != "started alignment" {
			t.Errorf("message = %q, want %q", got[0].Message, "started alignment")
		}
	})

	t.Run("does not mistake a short first word for a logger", func(t *testing.T) {
		got, err := Read(strings.NewReader("01-02 10:00:00 I ok then\n"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got[0].Logger != "" {
			t.Errorf("logger = %q, want empty", got[0].Logger)
		}
		if got[0].Message != "ok then" {
			t.Errorf("message = %q", got[0].Message)
		}
	})
}

func TestReadFile(t *testing.T) {
	t.Run("reads a file from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		if err := os.WriteFile(path, []byte(sampleLog), 0644); err != nil {
			t.Fatal(err)
		}
		entries, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if len(entries) != 6 {
			t.Errorf("got %d entries, want 6", len(entries))
		}
	})

	t.Run("missing file yields ErrNoLogFile", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "nope.log"))
		if !errors.Is(err, errors.ErrNoLogFile) {
			t.Errorf("err = %v, want ErrNoLogFile", err)
		}
	})
}

func TestFilter(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("by minimum level", func(t *testing.T) {
		got := Filter(entries, Query{Level: "WARN"})
		if len(got) != 2 {
			t.Fatalf("got %d entries, want 2: %+v", len(got), got)
		}
		if got[0].Level != "WARN" || got[1].Level != "ERROR" {
			t.Errorf("levels = %s, %s", got[0].Level, got[1].Level)
		}
	})

	t.Run("by time window", func(t *testing.T) {
		since := time.Date(0, 1, 2, 10, 0, 3, 0, time.UTC)
		until := time.Date(0, 1, 2, 10, 0, 4, 0, time.UTC)
		got := Filter(entries, Query{Since: since, Until: until})
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("by substring", func(t *testing.T) {
		got := Filter(entries, Query{Contains: "Progress"})
		if len(got) != 1 || got[0].Logger != "log2f" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("by pattern over the raw line", func(t *testing.T) {
		got := Filter(entries, Query{Pattern: regexp.MustCompile(`index=\d`)})
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("criteria combine", func(t *testing.T) {
		got := Filter(entries, Query{Level: "WARN", Contains: "retrying"})
		if len(got) != 1 {
			t.Errorf("got %d entries, want 1", len(got))
		}
	})
}

func TestExport(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("json round-trips", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := Export(buf, entries, "json"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		var decoded []Entry
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != len(entries) {
			t.Errorf("got %d entries back, want %d", len(decoded), len(entries))
		}
	})

	t.Run("text reproduces raw lines", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := Export(buf, entries[:1], "text"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		want := "01-02 10:00:00 D main    resolving inputs files=4\n"
		if buf.String() != want {
			t.Errorf("text = %q, want %q", buf.String(), want)
		}
	})

	t.Run("csv carries a header row", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := Export(buf, entries, "csv"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		records, err := csv.NewReader(buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if strings.Join(records[0], ",") != "time,level,logger,message" {
			t.Errorf("header = %v", records[0])
		}
		if len(records) != len(entries)+1 {
			t.Errorf("got %d records, want %d", len(records), len(entries)+1)
		}
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		if err := Export(&bytes.Buffer{}, entries, "xml"); err == nil {
			t.Error("expected an error for an unsupported format")
		}
	})
}

func TestLatestRunLog(t *testing.T) {
	writeRunLog := func(t *testing.T, dir, name string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("01-02 10:00:00 I main    hi\n"), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("follows the latest link", func(t *testing.T) {
		workdir := t.TempDir()
		logDir := filepath.Join(workdir, "demo", ".logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			t.Fatal(err)
		}
		writeRunLog(t, logDir, "run-20240101-100000.log")
		target := writeRunLog(t, logDir, "run-20240102-100000.log")
		if err := os.Symlink("run-20240102-100000.log", filepath.Join(logDir, "run-latest.log")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		got, err := LatestRunLog(workdir, "demo")
		if err != nil {
			t.Fatalf("LatestRunLog failed: %v", err)
		}
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			t.Fatal(err)
		}
		if got != resolved {
			t.Errorf("got %s, want %s", got, resolved)
		}
	})

	t.Run("falls back to the newest run file", func(t *testing.T) {
		workdir := t.TempDir()
		logDir := filepath.Join(workdir, "demo", ".logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			t.Fatal(err)
		}
		writeRunLog(t, logDir, "run-20240101-100000.log")
		newest := writeRunLog(t, logDir, "run-20240103-090000.log")

		got, err := LatestRunLog(workdir, "demo")
		if err != nil {
			t.Fatalf("LatestRunLog failed: %v", err)
		}
		if got != newest {
			t.Errorf("got %s, want %s", got, newest)
		}
	})

	t.Run("empty log directory yields ErrNoLogFile", func(t *testing.T) {
		workdir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(workdir, "demo", ".logs"), 0755); err != nil {
			t.Fatal(err)
		}
		_, err := LatestRunLog(workdir, "demo")
		if !errors.Is(err, errors.ErrNoLogFile) {
			t.Errorf("err = %v, want ErrNoLogFile", err)
		}
	})
}
