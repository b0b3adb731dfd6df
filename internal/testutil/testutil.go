// Package testutil provides testing utilities for log2file tests.
package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pipework/log2file/config"
	"github.com/pipework/log2file/hooks"
	"github.com/pipework/log2file/logctx"
)

// Fixture bundles everything a plugin test needs for one simulated run.
type Fixture struct {
	// Workdir is the temporary base working directory.
	Workdir string
	// Run is the simulated pipeline execution.
	Run *hooks.Run
	// Console captures what the main channel's console sink received.
	Console *bytes.Buffer
	// ExecutorConsole captures the executor channel's console output.
	ExecutorConsole *bytes.Buffer
}

// NewRun creates a simulated pipeline run over a temp directory, with both
// logging channels starting out on console sinks the way a host framework
// would wire them. The caller may mutate Run.Config and Run.StartedAt
// before dispatching hooks.
func NewRun(t *testing.T, pipeline string) *Fixture {
	t.Helper()

	workdir := t.TempDir()
	console := &bytes.Buffer{}
	executorConsole := &bytes.Buffer{}

	mainLog := logctx.NewWithConsole("main", console, slog.LevelInfo)
	executorLog := logctx.NewWithConsole("xqute", executorConsole, slog.LevelInfo)

	run := hooks.NewRun(pipeline, workdir, config.Default(), mainLog, executorLog)
	t.Cleanup(func() {
		_ = mainLog.Close()
		_ = executorLog.Close()
	})
	return &Fixture{
		Workdir:         workdir,
		Run:             run,
		Console:         console,
		ExecutorConsole: executorConsole,
	}
}

// StartedAt pins the run's start time, for deterministic log file names.
func (f *Fixture) StartedAt(t *testing.T, stamp string) {
	t.Helper()

	ts, err := time.Parse("2006-01-02 15:04:05", stamp)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", stamp, err)
	}
	f.Run.StartedAt = ts
}

// Proc creates a task under the run and its working directory, which the
// host owns and would have created before task init.
func (f *Fixture) Proc(t *testing.T, name string, size int) *hooks.Proc {
	t.Helper()

	proc := &hooks.Proc{Name: name, Size: size, Run: f.Run}
	if err := os.MkdirAll(proc.Workdir(), 0755); err != nil {
		t.Fatalf("failed to create task workdir: %v", err)
	}
	return proc
}

// LogDir returns the run's .logs directory.
func (f *Fixture) LogDir() string {
	return filepath.Join(f.Run.Dir(), ".logs")
}

// ReadFile reads a file under the fixture, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
