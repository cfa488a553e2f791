// Package footprint implements the global-footprint analyzer (spec.md §4.A):
// for one transition, the set of global variables it reads and the set it
// writes, where "writes" may be the conservative sentinel "everything".
package footprint

import "github.com/ntsseq/sequentializer/internal/nts"

// Globals is the (reads, writes) pair spec.md §3 and §4.A describe. Writes is
// either a concrete set of variables or the sentinel Everything — Everything
// dominates every union and every collision check.
type Globals struct {
	Reads      map[*nts.Variable]struct{}
	Writes     map[*nts.Variable]struct{}
	Everything bool
}

// New returns an empty footprint (reads nothing, writes nothing).
func New() Globals {
	return Globals{Reads: map[*nts.Variable]struct{}{}, Writes: map[*nts.Variable]struct{}{}}
}

func (g *Globals) addRead(v *nts.Variable) {
	if g.Reads == nil {
		g.Reads = map[*nts.Variable]struct{}{}
	}
	g.Reads[v] = struct{}{}
}

func (g *Globals) addWrite(v *nts.Variable) {
	if g.Everything {
		return
	}
	if g.Writes == nil {
		g.Writes = map[*nts.Variable]struct{}{}
	}
	g.Writes[v] = struct{}{}
}

// markEverything sets the writes sentinel, per the GlobalWrites invariant
// that Everything dominates: once set, the concrete write set is irrelevant.
func (g *Globals) markEverything() {
	g.Everything = true
	g.Writes = nil
}

// Union returns the pointwise union of a and b: reads union, writes union
// (or Everything if either side is Everything).
func Union(a, b Globals) Globals {
	out := New()
	for v := range a.Reads {
		out.addRead(v)
	}
	for v := range b.Reads {
		out.addRead(v)
	}
	if a.Everything || b.Everything {
		out.markEverything()
		return out
	}
	for v := range a.Writes {
		out.addWrite(v)
	}
	for v := range b.Writes {
		out.addWrite(v)
	}
	return out
}

// UnionAll folds Union across every element of gs, returning an empty
// footprint for an empty slice.
func UnionAll(gs []Globals) Globals {
	out := New()
	for _, g := range gs {
		out = Union(out, g)
	}
	return out
}

// Collides reports whether a and b may interfere: either side writes
// everything, or some variable is written by one side and read or written by
// the other. Collides is symmetric by construction (spec.md §8).
func Collides(a, b Globals) bool {
	if a.Everything || b.Everything {
		return true
	}
	for v := range a.Writes {
		if _, ok := b.Writes[v]; ok {
			return true
		}
		if _, ok := b.Reads[v]; ok {
			return true
		}
	}
	for v := range b.Writes {
		if _, ok := a.Reads[v]; ok {
			return true
		}
	}
	return false
}

// Compute is the footprint analyzer's single public operation: compute the
// read/write footprint of transition t with respect to n's global scope.
//
// For a formula rule: if the formula's top-level conjunction does not
// mention a havoc atom, the result's writes are forced to Everything — this
// is the pivotal conservative approximation spec.md §4.A calls out and
// forbids relaxing. The formula is always walked syntactically regardless
// (primed global uses, havoc'd globals, and array-write targets contribute
// writes; every other global use contributes a read), so that concrete
// reads are never lost even when writes degrade to Everything.
//
// For a call rule: every output parameter is a write; every variable use
// inside an input term is a read.
//
// Variables not owned by n's global scope are ignored throughout.
func Compute(n *nts.Nts, t *nts.Transition) Globals {
	g := New()
	owned := ownershipPredicate(n)

	switch t.Kind {
	case nts.FormulaRule:
		if !havocInTopLevelConjunction(t.Formula) {
			g.markEverything()
		}
		walkFormula(t.Formula, owned, &g)
	case nts.CallRule:
		for _, in := range t.Call.Inputs {
			walkTerm(in, owned, &g)
		}
		for _, out := range t.Call.Outputs {
			if owned(out) {
				g.addWrite(out)
			}
		}
	}
	return g
}

func ownershipPredicate(n *nts.Nts) func(*nts.Variable) bool {
	owned := make(map[*nts.Variable]struct{}, len(n.Globals))
	for _, v := range n.Globals {
		owned[v] = struct{}{}
	}
	return func(v *nts.Variable) bool {
		if v == nil || !v.IsGlobal() {
			return false
		}
		_, ok := owned[v]
		return ok
	}
}

// havocInTopLevelConjunction mirrors the original analyzer's
// havoc_in_toplevel_conjunction: it only looks through nested Ands (the
// "top-level conjunction"), never through Or/Not, so a havoc buried under a
// disjunction or negation does not count.
func havocInTopLevelConjunction(f nts.Formula) bool {
	switch n := f.(type) {
	case *nts.Havoc:
		return true
	case *nts.And:
		for _, c := range n.Conjuncts {
			if havocInTopLevelConjunction(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func walkFormula(f nts.Formula, owned func(*nts.Variable) bool, g *Globals) {
	switch n := f.(type) {
	case nil:
		return
	case *nts.And:
		for _, c := range n.Conjuncts {
			walkFormula(c, owned, g)
		}
	case *nts.Or:
		for _, d := range n.Disjuncts {
			walkFormula(d, owned, g)
		}
	case *nts.Not:
		walkFormula(n.Operand, owned, g)
	case *nts.Havoc:
		for _, vr := range n.Vars {
			if owned(vr.Var) {
				g.addWrite(vr.Var)
			}
		}
	case *nts.ArrayWrite:
		if owned(n.Array.Var) {
			g.addWrite(n.Array.Var)
		}
		walkTerm(n.Index, owned, g)
		walkTerm(n.Value, owned, g)
	case *nts.Relation:
		walkTerm(n.LHS, owned, g)
		walkTerm(n.RHS, owned, g)
	}
}

func walkTerm(t nts.Term, owned func(*nts.Variable) bool, g *Globals) {
	switch n := t.(type) {
	case nil:
		return
	case *nts.VarRef:
		if !owned(n.Var) {
			return
		}
		if n.Primed {
			g.addWrite(n.Var)
		} else {
			g.addRead(n.Var)
		}
	case *nts.Const:
		// no variable use
	case *nts.BinTerm:
		walkTerm(n.LHS, owned, g)
		walkTerm(n.RHS, owned, g)
	case *nts.ArrayRead:
		if owned(n.Array.Var) {
			// An array read is a read regardless of priming on the array
			// handle itself; the element access does not write the array.
			g.addRead(n.Array.Var)
		}
		walkTerm(n.Index, owned, g)
	case *nts.Opaque:
		for _, vr := range n.Reads {
			if owned(vr.Var) {
				g.addRead(vr.Var)
			}
		}
	}
}
