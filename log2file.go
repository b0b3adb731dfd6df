// Package log2file routes a pipeline run's log output to rotating
// per-pipeline log files on disk, plus a run-latest.log convenience symlink,
// and optionally captures the task executor's logger to a per-task file.
//
// The plugin attaches file sinks to the run's logging channels at the
// pipeline-init and task-init hook points and detaches them at pipeline end.
// One main log file is created per run under <workdir>/<pipeline>/.logs/,
// named run-YYYYMMDD-HHMMSS.log; run-latest.log in the same directory always
// points at the newest one.
package log2file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pipework/log2file/errors"
	"github.com/pipework/log2file/hooks"
	"github.com/pipework/log2file/logctx"
)

const (
	// PluginName is the fixed name the plugin registers under. Hosts disable
	// it with "no:log2file".
	PluginName = "log2file"

	// LatestLinkName is the symlink in the log directory that always points
	// at the most recent run's log file.
	LatestLinkName = "run-latest.log"

	// ExecutorLogName is the per-task executor log file name.
	ExecutorLogName = "proc.xqute.log"

	// sinkName is the name every sink installed by this plugin is attached
	// under. Teardown removes sinks by this name, never by scanning.
	sinkName = "log2file"

	// progressName is the logger column used for job progress lines.
	progressName = "log2f"

	logDirName      = ".logs"
	timestampLayout = "20060102-150405"

	// executorTimeLayout is the wider timestamp used in executor log files.
	executorTimeLayout = "2006-01-02 15:04:05"
)

// state tracks the per-run attach lifecycle. The only valid transitions are
// UNINITIALIZED -> ATTACHED -> DETACHED; a second attach without a detach
// supersedes the first instead of erroring.
type state int

const (
	stateUninitialized state = iota
	stateAttached
	stateDetached
)

// Attacher is the log2file plugin. One instance serves one run at a time;
// hook invocations are sequential and non-reentrant, so no locking is done
// beyond what the sink routers already carry.
type Attacher struct {
	state state

	logFile    string
	latestLink string

	mainRouter     *logctx.Router
	executorRouter *logctx.Router

	// executorConsoleRemoved records the one-way removal of the executor
	// channel's console sink. It happens at most once per run and is never
	// undone, matching the documented behavior.
	executorConsoleRemoved bool

	// latestIsCopy is set when run-latest.log had to be a plain copy because
	// the filesystem refused a symlink. A copy goes stale as the run log
	// grows, so teardown refreshes it.
	latestIsCopy bool

	progress progressTracker
}

// New creates an Attacher ready to be registered with a hooks.Registry.
func New() *Attacher {
	return &Attacher{}
}

// Name implements hooks.Plugin.
func (a *Attacher) Name() string { return PluginName }

// LogFile returns the main log file path for the current run, or "" before
// OnInit has run.
func (a *Attacher) LogFile() string { return a.logFile }

// LatestLink returns the run-latest.log path for the current run, or ""
// before OnInit has run.
func (a *Attacher) LatestLink() string { return a.latestLink }

// OnInit implements hooks.Plugin. It creates the run's log directory,
// strips any pre-existing file sinks from the main channel, attaches a fresh
// truncate-mode file sink mirroring the console threshold, and repoints
// run-latest.log. Directory or file failure is fatal to the run.
func (a *Attacher) OnInit(run *hooks.Run) error {
	opts := run.Config

	logDir := filepath.Join(run.Dir(), logDirName)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return errors.NewInitError(run.Name, logDir, err)
	}

	fileName := "run-" + run.StartedAt.Format(timestampLayout) + ".log"
	logFile := filepath.Join(logDir, fileName)

	router := run.Log.Router()

	// Guard against duplicate attachment when a process runs the same
	// pipeline repeatedly: each run owns exactly one file.
	router.DetachFileSinks()

	sink, err := logctx.NewFileSink(logFile, logctx.FileSinkOptions{
		Level:       logctx.ParseLevel(opts.Level),
		LevelWidth:  1,
		StripMarkup: true,
	})
	if err != nil {
		return errors.NewInitError(run.Name, logFile, err)
	}
	router.Attach(sinkName, sink)

	a.latestLink = filepath.Join(logDir, LatestLinkName)
	copied, err := replaceLatestLink(a.latestLink, fileName, logFile)
	if err != nil {
		// Degraded, not fatal: the console sink still works, and the run
		// log itself is intact.
		run.Log.Warn("cannot update latest log link",
			"path", a.latestLink, "error", err)
	}
	a.latestIsCopy = copied

	a.logFile = logFile
	a.mainRouter = router
	a.state = stateAttached
	a.progress.reset()
	return nil
}

// replaceLatestLink repoints the run-latest.log symlink at target (a name
// relative to the link's directory). An existing link or file is removed
// first so the replacement is never half-written. On filesystems without
// symlink support the file is copied instead; copied reports whether that
// fallback was taken, so the caller knows the copy needs refreshing later.
func replaceLatestLink(link, target, targetPath string) (copied bool, err error) {
	if _, lerr := os.Lstat(link); lerr == nil {
		if rerr := os.Remove(link); rerr != nil {
			return false, fmt.Errorf("failed to remove previous link: %w", rerr)
		}
	}

	if serr := os.Symlink(target, link); serr != nil {
		if copyErr := copyFile(targetPath, link); copyErr != nil {
			return false, errors.Join(errors.ErrSymlinkUnsupported, serr, copyErr)
		}
		return true, errors.Join(errors.ErrSymlinkUnsupported, serr)
	}
	return false, nil
}

// copyFile copies src to dst, truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// OnProcStart implements hooks.Plugin. When executor routing is enabled it
// attaches a file sink for <task workdir>/proc.xqute.log to the executor
// channel, superseding any sink this plugin installed there before, and
// removes the executor's console sink once for the duration of the run.
func (a *Attacher) OnProcStart(proc *hooks.Proc) error {
	opts := proc.Run.Config
	if !opts.Xqute {
		return nil
	}

	logFile := filepath.Join(proc.Workdir(), ExecutorLogName)
	router := proc.Run.ExecutorLog.Router()

	// Secondary loggers may be shared across tasks; remove what this plugin
	// installed, tracked by sink name rather than by logger instance.
	router.Detach(sinkName)

	sink, err := logctx.NewFileSink(logFile, logctx.FileSinkOptions{
		Append:     opts.XquteAppend,
		Level:      logctx.ParseLevel(opts.XquteLevel),
		TimeLayout: executorTimeLayout,
		LevelWidth: 7,
		OmitLogger: true,
	})
	if err != nil {
		return errors.NewTaskLogError(proc.Name, logFile, err)
	}
	router.Attach(sinkName, sink)

	if !a.executorConsoleRemoved {
		// One-way for the run's lifetime: executor output goes only to
		// file from here on. Documented, accepted behavior.
		router.Detach(logctx.ConsoleSinkName)
		a.executorConsoleRemoved = true
	}

	a.executorRouter = router
	return nil
}

// OnProcDone implements hooks.Plugin. It closes the task's executor sink and
// flushes any buffered job progress to the run log.
func (a *Attacher) OnProcDone(proc *hooks.Proc, succeeded bool) {
	if a.executorRouter != nil {
		a.executorRouter.Detach(sinkName)
	}
	a.flushProgress(proc.Name)
}

// OnJobSucceeded implements hooks.Plugin.
func (a *Attacher) OnJobSucceeded(job *hooks.Job) {
	a.recordJob(job, glyphSucceeded)
}

// OnJobFailed implements hooks.Plugin.
func (a *Attacher) OnJobFailed(job *hooks.Job) {
	a.recordJob(job, glyphFailed)
}

// OnJobCached implements hooks.Plugin.
func (a *Attacher) OnJobCached(job *hooks.Job) {
	a.recordJob(job, glyphSucceeded)
}

// OnComplete implements hooks.Plugin. Teardown is identical on the success,
// failure and cancellation paths: every sink this plugin installed is
// detached and closed. Sinks it did not install are left alone; the console
// sink removed from the executor channel is not restored.
func (a *Attacher) OnComplete(run *hooks.Run, succeeded bool) {
	if a.state != stateAttached {
		return
	}

	if a.mainRouter != nil {
		a.mainRouter.Detach(sinkName)
	}
	if a.executorRouter != nil {
		a.executorRouter.Detach(sinkName)
	}

	// A copied run-latest.log was taken from the empty file at init time.
	// Refresh it now that the sink is closed and the run log is complete.
	if a.latestIsCopy && a.logFile != "" {
		if err := copyFile(a.logFile, a.latestLink); err != nil {
			run.Log.Warn("cannot refresh latest log copy",
				"path", a.latestLink, "error", err)
		}
	}

	a.mainRouter = nil
	a.executorRouter = nil
	a.executorConsoleRemoved = false
	a.latestIsCopy = false
	a.state = stateDetached
}
