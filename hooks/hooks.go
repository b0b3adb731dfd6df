package hooks

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pipework/log2file/config"
	"github.com/pipework/log2file/logctx"
)

// Run identifies one pipeline execution. It is created by the host at
// pipeline start and is read-only to plugins.
type Run struct {
	// ID uniquely identifies this execution.
	ID string
	// Name is the pipeline name.
	Name string
	// Workdir is the base working directory; the run's own directory is
	// <Workdir>/<Name>.
	Workdir string
	// StartedAt is the pipeline start timestamp.
	StartedAt time.Time
	// Config holds the options the host resolved for this run.
	Config *config.Options

	// Log is the main run-wide logging channel, normally writing to console.
	Log *logctx.Logger
	// ExecutorLog is the task-execution subsystem's channel.
	ExecutorLog *logctx.Logger
}

// NewRun creates a Run starting now with a fresh ID.
func NewRun(name, workdir string, cfg *config.Options, log, executorLog *logctx.Logger) *Run {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Run{
		ID:          uuid.NewString(),
		Name:        name,
		Workdir:     workdir,
		StartedAt:   time.Now(),
		Config:      cfg,
		Log:         log,
		ExecutorLog: executorLog,
	}
}

// Dir returns the run's own directory, <Workdir>/<Name>.
func (r *Run) Dir() string {
	return filepath.Join(r.Workdir, r.Name)
}

// Proc is one task/process within a run.
type Proc struct {
	// Name identifies the task within the pipeline.
	Name string
	// Size is the number of jobs the task fans out to.
	Size int
	// Run is the owning pipeline execution.
	Run *Run
}

// Workdir returns the task's working directory, <run dir>/<task name>.
func (p *Proc) Workdir() string {
	return filepath.Join(p.Run.Dir(), p.Name)
}

// Job is one unit of work within a Proc.
type Job struct {
	// Index is the job's position within the task, starting at 0.
	Index int
	// Proc is the owning task.
	Proc *Proc
}

// Plugin is the interface lifecycle plugins implement. The Base type
// provides no-op implementations so plugins only override what they need.
type Plugin interface {
	// Name is the unique name the plugin registers under.
	Name() string

	// OnInit fires once at pipeline startup. A non-nil error aborts the
	// run: it means the plugin cannot provide something the run depends on.
	OnInit(run *Run) error

	// OnProcStart fires when a task's executor is initialized. A non-nil
	// error is attributed to that task and does not abort sibling tasks.
	OnProcStart(proc *Proc) error

	// OnProcDone fires when a task finishes, successfully or not.
	OnProcDone(proc *Proc, succeeded bool)

	// OnJobSucceeded, OnJobFailed and OnJobCached report job outcomes.
	OnJobSucceeded(job *Job)
	OnJobFailed(job *Job)
	OnJobCached(job *Job)

	// OnComplete fires exactly once at pipeline end, on the success,
	// failure and cancellation paths alike.
	OnComplete(run *Run, succeeded bool)
}

// Base provides no-op implementations of every hook except Name.
// Embed it to implement only the hooks a plugin cares about.
type Base struct{}

func (Base) OnInit(*Run) error       { return nil }
func (Base) OnProcStart(*Proc) error { return nil }
func (Base) OnProcDone(*Proc, bool)  {}
func (Base) OnJobSucceeded(*Job)     {}
func (Base) OnJobFailed(*Job)        {}
func (Base) OnJobCached(*Job)        {}
func (Base) OnComplete(*Run, bool)   {}
