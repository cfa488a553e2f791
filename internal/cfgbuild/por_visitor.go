package cfgbuild

import (
	"github.com/ntsseq/sequentializer/internal/cstate"
	"github.com/ntsseq/sequentializer/internal/footprint"
	"github.com/ntsseq/sequentializer/internal/nts"
	"github.com/ntsseq/sequentializer/internal/tasks"
)

// PORVisitor is the partial-order-reduction strategy (spec.md §4.F): it tries
// each process in turn as a candidate ample set and commits to the first one
// that passes C0 (always enabled), C1 (no interference with any other task,
// via a transitive-globals collision check) and C3 (stack-freedom — no
// candidate successor is On_stack or equal to cs itself). If no process
// passes, it falls back to the full interleaving of SimpleVisitor.
type PORVisitor struct {
	Tasks *tasks.Tasks

	// Fallbacks counts control states where no candidate process passed
	// C0/C1/C3 and Expand fell back to the full interleaving, for the
	// por_fallbacks_total metric.
	Fallbacks int
}

// Expand implements Visitor.
func (v *PORVisitor) Expand(b *Builder, cs *cstate.ControlState) {
	for pid := 0; pid < cs.Len(); pid++ {
		if v.tryAmple(b, cs, pid) {
			return
		}
	}
	v.Fallbacks++
	expandAll(b, cs)
}

// ample is one process's candidate set of successor edges plus the union of
// their transitions' own global footprints.
type ample struct {
	candidates []ampleCandidate
	globals    footprint.Globals
}

type ampleCandidate struct {
	slots      []*nts.State
	transition *nts.Transition
}

// nextStates computes pid's candidate ample set: one candidate per outgoing
// transition of cs.Slot(pid), without interning any of them yet.
func (v PORVisitor) nextStates(b *Builder, cs *cstate.ControlState, pid int) ample {
	var a ample
	a.globals = footprint.New()
	s := cs.Slot(pid)
	for _, t := range s.Out() {
		if ti, ok := v.Tasks.TransitionInfo[t]; ok {
			a.globals = footprint.Union(a.globals, ti.Footprint)
		}
		newSlots := make([]*nts.State, len(cs.Slots))
		copy(newSlots, cs.Slots)
		newSlots[pid] = t.To
		a.candidates = append(a.candidates, ampleCandidate{slots: newSlots, transition: t})
	}
	return a
}

// checkC0 reports whether pid has at least one always-enabled outgoing
// transition, per spec.md §4.F's C0 side condition.
func (v PORVisitor) checkC0(cs *cstate.ControlState, pid int) bool {
	s := cs.Slot(pid)
	for _, t := range s.Out() {
		if alwaysEnabled(t) {
			return true
		}
	}
	return false
}

// checkC3 reports whether every candidate in the ample set is stack-free: not
// already On_stack (it would be a back-edge to a DFS ancestor, which the
// ample set is forbidden from creating since it is never fully expanded into
// cs.Next the way a genuine interleaving edge would be) and not equal to cs
// itself (a self-loop).
func (v PORVisitor) checkC3(b *Builder, cs *cstate.ControlState, a ample) bool {
	for _, c := range a.candidates {
		existing := b.Table.Get(c.slots)
		if existing == nil {
			continue
		}
		if existing.Status == cstate.OnStack {
			return false
		}
		if existing == cs {
			return false
		}
	}
	return true
}

// tryAmple attempts to commit pid's outgoing transitions as cs's sole ample
// set. On success it interns every candidate, appends the edges to cs.Next,
// and returns true.
func (v PORVisitor) tryAmple(b *Builder, cs *cstate.ControlState, pid int) bool {
	if !v.checkC0(cs, pid) {
		return false
	}

	a := v.nextStates(b, cs, pid)

	if !v.checkC3(b, cs, a) {
		return false
	}

	// C1: no other task's transitively-reachable globals may collide with
	// what pid's candidate transitions read or write. transitive_globals is
	// identical across every task (spec.md §4.B step 7), so unioning it here
	// is wasted work today, kept because spec.md keeps the step — see
	// DESIGN.md.
	otherGlobals := footprint.New()
	for i := 0; i < cs.Len(); i++ {
		if i == pid {
			continue
		}
		si := cs.Slot(i)
		if si == nil {
			continue
		}
		task := v.Tasks.TaskOf(si)
		if task == nil {
			continue
		}
		otherGlobals = footprint.Union(otherGlobals, task.TransitiveGlobals)
	}
	if footprint.Collides(otherGlobals, a.globals) {
		return false
	}

	for _, c := range a.candidates {
		target, _ := b.Table.InsertOrGet(c.slots)
		cs.Next = append(cs.Next, &cstate.Edge{From: cs, To: target, Transition: c.transition, Pid: pid})
	}
	return true
}

// alwaysEnabled mirrors the original analyzer's always_enabled(TransitionRule):
// a call rule is always enabled; a formula rule is always enabled only if its
// top-level conjunction consists solely of atoms that can never block
// (Havoc, ArrayWrite, or a Relation with a primed variable reference on
// either side), no primed variable is used more than once, and, when any
// primed variable is used, a single top-level Havoc atom covers all of them.
func alwaysEnabled(t *nts.Transition) bool {
	if t.Kind == nts.CallRule {
		return true
	}
	if t.Kind != nts.FormulaRule {
		return false
	}
	f := t.Formula
	if !onlyEnabledAtoms(f) {
		return false
	}

	primed := collectPrimedVars(f)
	if len(primed) == 0 {
		return true
	}
	seen := map[*nts.Variable]bool{}
	for _, v := range primed {
		if seen[v] {
			return false // a primed variable used more than once
		}
		seen[v] = true
	}
	return hasCoveringHavoc(f, primed)
}

// onlyEnabledAtoms walks only nested Ands (the top-level conjunction, same
// scope as footprint.havocInTopLevelConjunction) and requires every leaf atom
// to be individually never-blocking.
func onlyEnabledAtoms(f nts.Formula) bool {
	switch n := f.(type) {
	case *nts.And:
		for _, c := range n.Conjuncts {
			if !onlyEnabledAtoms(c) {
				return false
			}
		}
		return true
	case *nts.Havoc:
		return true
	case *nts.ArrayWrite:
		return true
	case *nts.Relation:
		return isPrimedVarRef(n.LHS) || isPrimedVarRef(n.RHS)
	default:
		return false
	}
}

func isPrimedVarRef(t nts.Term) bool {
	vr, ok := t.(*nts.VarRef)
	return ok && vr.Primed
}

// collectPrimedVars walks the whole formula tree (not just the top-level
// conjunction, matching the full-formula variable-use walk in the original
// analyzer) and returns every variable a Relation or an ArrayWrite target
// references in primed position. A Havoc atom's own variable list does not
// count as a "primed variable use" here — it is the thing that may *cover*
// a use, not a use itself — otherwise a single `havoc(x) ∧ x' = x + 1` would
// spuriously look like two distinct uses of x and trip the at-most-once
// check in alwaysEnabled.
func collectPrimedVars(f nts.Formula) []*nts.Variable {
	var out []*nts.Variable
	var walkFormula func(nts.Formula)
	var walkTerm func(nts.Term)
	walkTerm = func(t nts.Term) {
		switch n := t.(type) {
		case *nts.VarRef:
			if n.Primed {
				out = append(out, n.Var)
			}
		case *nts.BinTerm:
			walkTerm(n.LHS)
			walkTerm(n.RHS)
		case *nts.ArrayRead:
			walkTerm(n.Index)
		}
	}
	walkFormula = func(f nts.Formula) {
		switch n := f.(type) {
		case nil:
			return
		case *nts.And:
			for _, c := range n.Conjuncts {
				walkFormula(c)
			}
		case *nts.Or:
			for _, d := range n.Disjuncts {
				walkFormula(d)
			}
		case *nts.Not:
			walkFormula(n.Operand)
		case *nts.Havoc:
			// Not collected — see doc comment above.
		case *nts.ArrayWrite:
			out = append(out, n.Array.Var)
			walkTerm(n.Index)
			walkTerm(n.Value)
		case *nts.Relation:
			walkTerm(n.LHS)
			walkTerm(n.RHS)
		}
	}
	walkFormula(f)
	return out
}

// hasCoveringHavoc reports whether some single top-level Havoc atom (walking
// only nested Ands, the top-level conjunction) lists every variable in vars.
// A formula with no top-level Havoc atom at all never covers a non-empty
// vars — spec.md's scenario 2 (a bare `x' = x + 1` with no havoc) is exactly
// this case, and must fail C0 even though the relation alone would otherwise
// look syntactically unconditional.
func hasCoveringHavoc(f nts.Formula, vars []*nts.Variable) bool {
	for _, h := range topLevelHavocs(f) {
		covered := map[*nts.Variable]bool{}
		for _, vr := range h.Vars {
			covered[vr.Var] = true
		}
		all := true
		for _, v := range vars {
			if !covered[v] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func topLevelHavocs(f nts.Formula) []*nts.Havoc {
	switch n := f.(type) {
	case *nts.And:
		var out []*nts.Havoc
		for _, c := range n.Conjuncts {
			out = append(out, topLevelHavocs(c)...)
		}
		return out
	case *nts.Havoc:
		return []*nts.Havoc{n}
	default:
		return nil
	}
}
