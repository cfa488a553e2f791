// Package seq is the sequentializer driver (spec.md §4.H): it wires the task
// decomposer, the CFG builder, and the target generator into the single
// entry point the CLI and any embedding caller use, threading telemetry and
// a run-report store through the pipeline.
package seq

import (
	"context"
	"fmt"
	"time"

	"github.com/ntsseq/sequentializer/internal/cfgbuild"
	"github.com/ntsseq/sequentializer/internal/gen"
	"github.com/ntsseq/sequentializer/internal/nts"
	"github.com/ntsseq/sequentializer/internal/runstore"
	"github.com/ntsseq/sequentializer/internal/tasks"
	"github.com/ntsseq/sequentializer/internal/telemetry"
	"github.com/ntsseq/sequentializer/internal/telemetry/emit"
)

// Mode selects the CFG builder's edge-expansion strategy.
type Mode string

const (
	// ModeSimple expands every enabled process at each control state.
	ModeSimple Mode = "simple"
	// ModePOR applies the partial-order-reduction ample-set strategy,
	// falling back to ModeSimple's full interleaving per control state
	// where no candidate process passes C0/C1/C3.
	ModePOR Mode = "por"
)

// Result is what Sequentialize returns: the generated single-threaded
// target program plus the build statistics recorded in the run report.
type Result struct {
	Target       *nts.Nts
	RunID        string
	Mode         Mode
	ControlState int
	Transitions  int
	PORFallbacks int
	Duration     time.Duration
}

// driverConfig collects Options before a Sequentialize call, mirroring the
// engineConfig indirection the workflow engine this module descends from
// uses for its own functional options.
type driverConfig struct {
	mainName string
	runID    string
	emitter  emit.Emitter
	metrics  *telemetry.Metrics
	store    runstore.Store
}

// Option configures a Sequentialize call.
type Option func(*driverConfig) error

// WithMainName overrides which top-level thread template is treated as the
// distinguished "main" task (task number 0). Default: "main".
func WithMainName(name string) Option {
	return func(cfg *driverConfig) error {
		cfg.mainName = name
		return nil
	}
}

// WithRunID sets the identifier attached to every emitted event, metric
// label, and run-report row. Default: the fixed placeholder "run", which the
// caller should normally override; this package never generates run IDs.
func WithRunID(id string) Option {
	return func(cfg *driverConfig) error {
		cfg.runID = id
		return nil
	}
}

// WithTelemetry attaches an event emitter and/or a metrics registry. Either
// argument may be nil to opt out of that channel.
func WithTelemetry(e emit.Emitter, m *telemetry.Metrics) Option {
	return func(cfg *driverConfig) error {
		cfg.emitter = e
		cfg.metrics = m
		return nil
	}
}

// WithRunStore persists a RunReport to s once the build completes (success
// or failure). Diagnostic only — see runstore's package doc for why this
// implies no resume path.
func WithRunStore(s runstore.Store) Option {
	return func(cfg *driverConfig) error {
		cfg.store = s
		return nil
	}
}

// Sequentialize runs the full pipeline (spec.md §4.H): decompose n's states
// into tasks, build the product-state CFG under the chosen Mode, and
// generate the single-threaded target program. n must already be flattened
// by an internal/ir.Inliner — Sequentialize never inlines call rules itself.
func Sequentialize(ctx context.Context, n *nts.Nts, mode Mode, opts ...Option) (*Result, error) {
	cfg := &driverConfig{mainName: "main", runID: "run", emitter: emit.Null{}}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Msg: "build_start", Meta: map[string]any{"mode": string(mode)}})
	if cfg.metrics != nil {
		cfg.metrics.BuildsTotal.WithLabelValues(cfg.runID, string(mode)).Inc()
	}

	report := runstore.RunReport{RunID: cfg.runID, Mode: string(mode), StartedAt: start}
	finish := func(res *Result, err error) (*Result, error) {
		report.FinishedAt = time.Now()
		if err != nil {
			report.Err = err.Error()
		} else {
			report.ControlState = res.ControlState
			report.Transitions = res.Transitions
			report.PORFallbacks = res.PORFallbacks
		}
		if cfg.store != nil {
			if saveErr := cfg.store.Save(ctx, report); saveErr != nil {
				cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Msg: "run_store_save_failed", Meta: map[string]any{"error": saveErr}})
			}
		}
		if err != nil {
			cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Msg: "build_error", Meta: map[string]any{"error": err}})
			return nil, err
		}
		cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Stage: "", Msg: "build_complete", Meta: map[string]any{
			"control_states": res.ControlState, "transitions": res.Transitions, "por_fallbacks": res.PORFallbacks,
		}})
		if cfg.metrics != nil {
			cfg.metrics.ControlStates.WithLabelValues(cfg.runID).Set(float64(res.ControlState))
			cfg.metrics.PORFallbacksTotal.WithLabelValues(cfg.runID).Add(float64(res.PORFallbacks))
			cfg.metrics.BuildDurationMs.WithLabelValues(cfg.runID).Observe(float64(res.Duration.Milliseconds()))
		}
		return res, nil
	}

	tk, err := tasks.Decompose(n, cfg.mainName)
	if err != nil {
		return finish(nil, fmt.Errorf("task decomposition: %w", err))
	}
	cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Stage: "tasks", Msg: "tasks_decomposed", Meta: map[string]any{"count": len(tk.All)}})

	var por *cfgbuild.PORVisitor
	var visitor cfgbuild.Visitor
	switch mode {
	case ModePOR:
		por = &cfgbuild.PORVisitor{Tasks: tk}
		visitor = por
	case ModeSimple, "":
		visitor = cfgbuild.SimpleVisitor{}
	default:
		return finish(nil, fmt.Errorf("seq: unknown mode %q", mode))
	}

	b, err := cfgbuild.Build(n, visitor)
	if err != nil {
		return finish(nil, fmt.Errorf("cfg build: %w", err))
	}
	var fallbacks int
	if por != nil {
		fallbacks = por.Fallbacks
	}
	cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Stage: "cfgbuild", Msg: "cfg_built", Meta: map[string]any{
		"control_states": b.Table.Len(), "edges": len(b.EdgeLog),
	}})

	target, err := gen.Generate(b, n, tk)
	if err != nil {
		return finish(nil, fmt.Errorf("target generation: %w", err))
	}
	cfg.emitter.Emit(emit.Event{RunID: cfg.runID, Stage: "gen", Msg: "target_generated"})

	res := &Result{
		Target:       target,
		RunID:        cfg.runID,
		Mode:         mode,
		ControlState: b.Table.Len(),
		Transitions:  len(b.EdgeLog) - 1,
		PORFallbacks: fallbacks,
		Duration:     time.Since(start),
	}
	return finish(res, nil)
}
