// Package runstore persists diagnostic run reports: one row per
// Sequentialize call, recording what mode ran, how large the resulting CFG
// was, and whether it succeeded. It is write-only from the pipeline's
// perspective — there is no resume path, preserving the driver's "single
// pass, no retry" contract (spec.md §7) — and exists purely so an operator
// can answer "what happened to run X" after the fact.
package runstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run ID has no report.
var ErrNotFound = errors.New("runstore: run not found")

// RunReport is one Sequentialize call's outcome.
type RunReport struct {
	RunID        string
	Mode         string // "simple" or "por"
	StartedAt    time.Time
	FinishedAt   time.Time
	ControlState int // size of the final product-state table
	Transitions  int // generated target transitions
	PORFallbacks int // control states where POR fell back to Simple
	Err          string
}

// Store persists and retrieves RunReports. Save is idempotent on RunID: a
// second Save for the same RunID overwrites the first, rather than erroring
// — diagnostics, unlike checkpoints, have no branching history to protect.
type Store interface {
	Save(ctx context.Context, report RunReport) error
	Get(ctx context.Context, runID string) (RunReport, error)
	List(ctx context.Context) ([]RunReport, error)
	Close() error
}
