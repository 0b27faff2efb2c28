// Package recorder keeps the history of batch sync runs.
package recorder

import (
	"context"
	"time"

	"QuantCache/internal/model"
	"QuantCache/internal/syncer"
)

// Run kinds.
const (
	KindUpdate   = "update"
	KindBackfill = "backfill"
)

// Run is one finished batch run.
type Run struct {
	Kind      string
	StartedAt time.Time
	Elapsed   time.Duration
	Summary   syncer.Summary
	// Interrupted holds the batch-level error of a run that stopped early.
	Interrupted string
}

// Recorder persists batch runs for later reporting.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
	// LastRun returns the newest run of kind, ok is false when none exists.
	LastRun(ctx context.Context, kind string) (run Run, ok bool, err error)
	Close() error
}

// NewRun builds the Run of a finished batch.
func NewRun(kind string, started time.Time, elapsed time.Duration, outcomes []model.SyncOutcome, err error) Run {
	run := Run{Kind: kind, StartedAt: started, Elapsed: elapsed, Summary: syncer.Summarize(outcomes)}
	if err != nil {
		run.Interrupted = err.Error()
	}
	return run
}
