// Package emit provides pluggable observability sinks for the sequentializer
// pipeline: a structured log emitter, a no-op emitter, an OpenTelemetry span
// emitter, and an in-memory collector, adapted from the workflow engine this
// module descends from.
package emit

// Event is one observability event emitted during a Sequentialize run.
type Event struct {
	// RunID identifies the run that emitted this event (caller-supplied).
	RunID string

	// Stage names the pipeline component emitting the event: "tasks",
	// "cfgbuild", "gen", or "" for run-level events (start/complete/error).
	Stage string

	// Msg is a short, human-readable description ("build_start",
	// "tasks_decomposed", "cfg_built", "build_complete").
	Msg string

	// Meta carries stage-specific structured data, e.g. {"control_states": 12,
	// "transitions": 18, "por_fallbacks": 0} on a "build_complete" event.
	Meta map[string]any
}
