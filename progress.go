package log2file

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pipework/log2file/hooks"
	"github.com/pipework/log2file/logctx"
)

const (
	glyphSucceeded = "✔"
	glyphFailed    = "✘"

	// progressLineBudget is how many characters of index+glyph entries fit
	// on one progress line before it is emitted.
	progressLineBudget = 55.0
)

// progressTracker batches per-job outcomes into compact progress lines so
// large fan-outs don't produce one log line per job.
type progressTracker struct {
	entries []string
	perLine int
}

func (t *progressTracker) reset() {
	t.entries = nil
	t.perLine = 0
}

// add records one job outcome. It returns true when a full line has
// accumulated and should be emitted.
func (t *progressTracker) add(index, size int, glyph string) bool {
	width := len(strconv.Itoa(size - 1))
	if width < 1 {
		width = 1
	}
	t.perLine = int(math.Ceil(progressLineBudget / float64(width+2)))
	t.entries = append(t.entries, fmt.Sprintf("%0*d%s", width, index, glyph))
	return len(t.entries) >= t.perLine
}

// line joins and clears the buffered entries.
func (t *progressTracker) line() string {
	line := strings.Join(t.entries, " ")
	t.entries = t.entries[:0]
	return line
}

func (t *progressTracker) empty() bool { return len(t.entries) == 0 }

// recordJob buffers one job outcome and emits a progress line when enough
// have accumulated.
func (a *Attacher) recordJob(job *hooks.Job, glyph string) {
	if a.state != stateAttached {
		return
	}
	if a.progress.add(job.Index, job.Proc.Size, glyph) {
		a.emitProgress(job.Proc.Name)
	}
}

// flushProgress emits whatever progress is buffered, if any.
func (a *Attacher) flushProgress(procName string) {
	if a.state != stateAttached || a.progress.empty() {
		return
	}
	a.emitProgress(procName)
}

// emitProgress writes a progress line directly to the run's file sink.
// Progress lines are file-only: the console already renders job progress in
// its own way, so routing them through the full channel would duplicate it.
func (a *Attacher) emitProgress(procName string) {
	if a.mainRouter == nil {
		return
	}
	sink, ok := a.mainRouter.Get(sinkName)
	if !ok {
		return
	}

	msg := fmt.Sprintf("%s: Progress %s", procName, a.progress.line())
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, msg, 0)
	rec.AddAttrs(slog.String(logctx.LoggerKey, progressName))
	_ = sink.Handle(context.Background(), rec)
}
