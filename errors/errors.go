// Package errors provides centralized error definitions and error handling
// utilities for the log2file codebase. It defines domain-specific errors for
// log routing, error constructors with context wrapping, and classification
// helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from specific routing stages:
//   - InitError: the run's main log directory or file could not be set up.
//     These are fatal; a pipeline must not proceed silently without its log.
//   - TaskLogError: a per-task executor log file could not be opened.
//     These are scoped to the failing task and never abort sibling tasks.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewInitError("demo", "/wd/demo/.logs", cause)
//	err := errors.NewTaskLogError("align", "/wd/demo/align/proc.xqute.log", cause)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSymlinkUnsupported) { ... }
//
//	var initErr *errors.InitError
//	if errors.As(err, &initErr) { ... }
//
//	if errors.IsFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for log routing.
var (
	// ErrSymlinkUnsupported indicates the filesystem refused to create the
	// run-latest.log symlink. The run continues with a degraded latest link.
	ErrSymlinkUnsupported = New("symlinks not supported on this filesystem")
	// ErrNoLogFile indicates no run log file exists where one was expected.
	ErrNoLogFile = New("no run log file found")
	// ErrNotAttached indicates teardown was requested before any attach.
	ErrNotAttached = New("log routing is not attached")
)

// InitError indicates the main log file for a run could not be set up.
// It is fatal: losing the run's log silently is unacceptable, so the host
// must abort the run when it sees one.
type InitError struct {
	// Pipeline is the name of the pipeline being initialized.
	Pipeline string
	// Path is the directory or file that failed.
	Path string
	// Err is the underlying error.
	Err error
}

// NewInitError creates an InitError for the given pipeline and path.
func NewInitError(pipeline, path string, err error) *InitError {
	return &InitError{Pipeline: pipeline, Path: path, Err: err}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("log2file init failed for pipeline %q at %s: %v", e.Pipeline, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *InitError) Unwrap() error { return e.Err }

// TaskLogError indicates the executor log file for a specific task could not
// be opened. It is scoped to that task: the pipeline and sibling tasks
// continue.
type TaskLogError struct {
	// Proc is the name of the task whose log failed.
	Proc string
	// Path is the log file path that could not be opened.
	Path string
	// Err is the underlying error.
	Err error
}

// NewTaskLogError creates a TaskLogError for the given task and path.
func NewTaskLogError(proc, path string, err error) *TaskLogError {
	return &TaskLogError{Proc: proc, Path: path, Err: err}
}

func (e *TaskLogError) Error() string {
	return fmt.Sprintf("log2file: cannot open executor log for task %q at %s: %v", e.Proc, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *TaskLogError) Unwrap() error { return e.Err }

// IsFatal reports whether err should abort the run. Only InitError is fatal;
// symlink degradation and task-scoped log failures are not.
func IsFatal(err error) bool {
	var initErr *InitError
	return As(err, &initErr)
}

// IsTaskScoped reports whether err is attributable to a single task.
func IsTaskScoped(err error) bool {
	var taskErr *TaskLogError
	return As(err, &taskErr)
}
