// Package hooks defines the lifecycle contract between a pipeline host and
// its plugins.
//
// The host drives a fixed set of hook points through a Dispatcher: pipeline
// init, per-task start/done, per-job status, and pipeline completion. Plugins
// implement the Plugin interface and register under a unique name; the host
// can disable a plugin with the "no:<name>" negation convention.
//
// Hook dispatch is sequential and non-reentrant. Teardown (Complete) fires
// identically on success, failure, and cancellation.
package hooks
