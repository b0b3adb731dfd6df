// Package logctx provides the logging context for pipeline runs.
//
// It wraps Go's log/slog package with a Router: a handler that fans records
// out to named, detachable sinks (console, file). Instead of mutating a
// process-global logger registry, a run owns its loggers and passes them to
// whatever needs to attach or detach sinks, which makes teardown-completeness
// testable.
//
// # Basic Usage
//
// Create a logger with a console sink, then route it to a file as well:
//
//	logger := logctx.NewWithConsole("main", os.Stderr, slog.LevelInfo)
//
//	sink, err := logctx.NewFileSink("/wd/demo/.logs/run-20240101-100000.log", logctx.FileSinkOptions{
//	    Level: slog.LevelInfo,
//	})
//	if err != nil {
//	    return err
//	}
//	logger.Router().Attach("log2file", sink)
//
//	logger.Info("pipeline started", "name", "demo")
//
//	// Later: stop writing to the file, keep the console.
//	logger.Router().Detach("log2file")
//
// Attaching a sink under a name that is already taken supersedes (and closes)
// the previous sink, so repeated attachment is idempotent rather than an
// error.
//
// # Thread Safety
//
// Router mutations and record delivery are guarded by a mutex. Hook dispatch
// in the host framework is sequential, but log records may be emitted from
// worker goroutines, so delivery takes the lock as well.
package logctx
