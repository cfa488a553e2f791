// Package cfgbuild implements the CFG builder (spec.md §4.D): an iterative,
// non-recursive depth-first exploration of the product state space, driven by
// a pluggable Visitor that decides, for each newly discovered control state,
// which outgoing edges exist.
package cfgbuild

import (
	"github.com/ntsseq/sequentializer/internal/cstate"
	"github.com/ntsseq/sequentializer/internal/nts"
)

// Visitor computes the outgoing edges of a control state the first time the
// builder discovers it, appending them to cs.Next. Expand is called at most
// once per control state — exactly when its Status is cstate.New — mirroring
// the original tool's IEdgeVisitor dispatch, which only descends into
// exploration on the New case and ignores On_stack/Closed targets.
type Visitor interface {
	Expand(b *Builder, cs *cstate.ControlState)
}

// Builder owns the product-state table and the per-thread template lookup
// used to interpret a control state's slots, plus the DFS cursor and the
// chronological edge log every generator (internal/gen) replays.
type Builder struct {
	Nts     *nts.Nts
	Table   *cstate.Table
	Threads []*nts.BasicNts // Threads[pid] is the thread template of process pid
	Initial *cstate.ControlState
	EdgeLog []*cstate.Edge

	visitor Visitor
	current *cstate.ControlState
}

// NewBuilder expands n's instances into a flat per-pid thread template list
// and returns an otherwise empty Builder. It does not start exploration.
func NewBuilder(n *nts.Nts) (*Builder, error) {
	var threads []*nts.BasicNts
	for _, inst := range n.Instances {
		if inst.Template == nil {
			return nil, nts.NewInvariantError("cfgbuild.NewBuilder", "instance has a nil template")
		}
		for i := 0; i < inst.Multiplicity; i++ {
			threads = append(threads, inst.Template)
		}
	}
	return &Builder{Nts: n, Table: cstate.NewTable(), Threads: threads}, nil
}

// ThreadCount returns the number of process slots in every control state.
func (b *Builder) ThreadCount() int { return len(b.Threads) }

// ThreadTemplate returns the thread template process pid is an instance of.
func (b *Builder) ThreadTemplate(pid int) *nts.BasicNts { return b.Threads[pid] }

// Build runs Visitor v to completion over n, starting from the control state
// whose slots are every thread template's initial state, and returns the
// resulting Builder once every reachable control state (under v's edge
// selection) has status Closed.
//
// Build never recurses: the DFS stack is the explicit ReachedFrom chain
// cstate.ControlState carries, per spec.md §9's iterative-construction note.
func Build(n *nts.Nts, v Visitor) (*Builder, error) {
	b, err := NewBuilder(n)
	if err != nil {
		return nil, err
	}
	b.visitor = v

	initSlots := make([]*nts.State, len(b.Threads))
	for pid, tmpl := range b.Threads {
		if tmpl.Init == nil {
			return nil, nts.NewInvariantError("cfgbuild.Build", "thread template %q has no initial state", tmpl.Name)
		}
		initSlots[pid] = tmpl.Init
	}

	initial, _ := b.Table.InsertOrGet(initSlots)
	b.Initial = initial
	// The synthetic initial edge (⊥, initial, ⊥, 0) per spec.md §4.D: logged
	// so that |EdgeLog| - 1 equals the number of real (transition-bearing)
	// edges, but never descended through by step — it is delivered here,
	// outside the edge-step loop, precisely once.
	b.EdgeLog = append(b.EdgeLog, &cstate.Edge{To: initial})
	v.Expand(b, initial)
	initial.Status = cstate.OnStack
	b.current = initial

	for b.step() {
	}
	return b, nil
}

// step advances the DFS by exactly one edge, or performs the Closed-state pop
// cascade and reports false once every control state is Closed.
//
// Deliberate deviation from the original implementation: ControlState.ReachedFrom
// is written only when the edge target transitions New -> OnStack (the only
// case where the value is later read, when that same state is popped). The
// original C++ writes edge.to.reached_from unconditionally, for every edge,
// including edges whose target is already On_stack (a cyclic back-edge to a
// DFS ancestor other than the current state). Tracing that unconditional write
// through a back-edge shows it can overwrite an ancestor's true parent pointer
// before that ancestor is ever popped, which — if such a cycle is reachable —
// would corrupt the pop cascade. Gating the write on Status == New sidesteps
// the question entirely: On_stack and Closed targets are never descended into
// (current never moves to them), so the value written for them is never
// observed, and the DFS parent pointer used by the pop cascade is always
// correct.
func (b *Builder) step() bool {
	current := b.current
	for current != nil && current.VisitedNext >= len(current.Next) {
		up := current.ReachedFrom
		current.Status = cstate.Closed
		current.ReachedFrom = nil
		current = up
	}
	b.current = current
	if current == nil {
		return false
	}

	edge := current.Next[current.VisitedNext]
	current.VisitedNext++
	b.EdgeLog = append(b.EdgeLog, edge)

	if edge.To.Status == cstate.New {
		edge.To.ReachedFrom = current
		b.visitor.Expand(b, edge.To)
		edge.To.Status = cstate.OnStack
		b.current = edge.To
	}
	return true
}
