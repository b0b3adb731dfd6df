package hooks

import (
	"fmt"

	pkgerrors "github.com/pipework/log2file/errors"
)

// Dispatcher drives the hook points over a Registry's enabled plugins.
// Dispatch is synchronous and in registration order.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Init fires OnInit on every enabled plugin. The first error aborts
// dispatch and is returned: init failures are fatal to the run.
func (d *Dispatcher) Init(run *Run) error {
	for _, p := range d.registry.Plugins() {
		if err := p.OnInit(run); err != nil {
			return fmt.Errorf("plugin %q init: %w", p.Name(), err)
		}
	}
	return nil
}

// ProcStart fires OnProcStart on every enabled plugin. Errors are joined
// and returned after all plugins ran: they are scoped to this task, and one
// plugin's failure must not hide another's.
func (d *Dispatcher) ProcStart(proc *Proc) error {
	var err error
	for _, p := range d.registry.Plugins() {
		if perr := p.OnProcStart(proc); perr != nil {
			err = pkgerrors.Join(err, fmt.Errorf("plugin %q proc start: %w", p.Name(), perr))
		}
	}
	return err
}

// ProcDone fires OnProcDone on every enabled plugin.
func (d *Dispatcher) ProcDone(proc *Proc, succeeded bool) {
	for _, p := range d.registry.Plugins() {
		p.OnProcDone(proc, succeeded)
	}
}

// JobSucceeded fires OnJobSucceeded on every enabled plugin.
func (d *Dispatcher) JobSucceeded(job *Job) {
	for _, p := range d.registry.Plugins() {
		p.OnJobSucceeded(job)
	}
}

// JobFailed fires OnJobFailed on every enabled plugin.
func (d *Dispatcher) JobFailed(job *Job) {
	for _, p := range d.registry.Plugins() {
		p.OnJobFailed(job)
	}
}

// JobCached fires OnJobCached on every enabled plugin.
func (d *Dispatcher) JobCached(job *Job) {
	for _, p := range d.registry.Plugins() {
		p.OnJobCached(job)
	}
}

// Complete fires OnComplete on every enabled plugin. The host calls this on
// the success, failure and cancellation paths alike; plugins must not
// distinguish between them for teardown purposes.
func (d *Dispatcher) Complete(run *Run, succeeded bool) {
	for _, p := range d.registry.Plugins() {
		p.OnComplete(run, succeeded)
	}
}
