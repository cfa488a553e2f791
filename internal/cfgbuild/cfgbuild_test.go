package cfgbuild

import (
	"testing"

	"github.com/ntsseq/sequentializer/internal/cstate"
	"github.com/ntsseq/sequentializer/internal/footprint"
	"github.com/ntsseq/sequentializer/internal/nts"
	"github.com/ntsseq/sequentializer/internal/tasks"
)

func realEdges(b *Builder) []*cstate.Edge {
	// EdgeLog[0] is always the synthetic initial edge; see Build.
	return b.EdgeLog[1:]
}

// Scenario 1: two identical threads, no globals.
func TestSimpleVisitor_TwoIdenticalThreads(t *testing.T) {
	n := nts.NewNts()
	tmpl := nts.NewBasicNts("T")
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")
	tmpl.AddState(s0)
	tmpl.AddState(s1)
	tmpl.Init = s0
	tmpl.Finals = []*nts.State{s1}
	tmpl.AddTransition(&nts.Transition{From: s0, To: s1, Kind: nts.FormulaRule, Formula: &nts.And{}})
	n.AddTemplate(tmpl)
	n.AddInstance(&nts.Instance{Template: tmpl, Multiplicity: 2})

	b, err := Build(n, SimpleVisitor{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if b.Table.Len() != 4 {
		t.Fatalf("expected 4 control states, got %d", b.Table.Len())
	}
	if len(realEdges(b)) != 4 {
		t.Fatalf("expected 4 real edges, got %d", len(realEdges(b)))
	}
	for _, cs := range b.Table.All() {
		if cs.Status != cstate.Closed {
			t.Fatalf("expected every control state Closed after build, got %v", cs.Status)
		}
		if cs.ReachedFrom != nil {
			t.Fatalf("expected no ReachedFrom left after build")
		}
	}
}

// Scenario 2: race on a global with no havoc — POR must not reduce (C0 fails).
func TestPORVisitor_RaceNoHavoc_NoReduction(t *testing.T) {
	n, x, tmpl := raceTemplate(t, false)
	n.AddInstance(&nts.Instance{Template: tmpl, Multiplicity: 2})
	_ = x

	simple, err := Build(n, SimpleVisitor{})
	if err != nil {
		t.Fatalf("Build(simple): %v", err)
	}

	tk := emptyTasks(n, tmpl)
	por, err := Build(n, &PORVisitor{Tasks: tk})
	if err != nil {
		t.Fatalf("Build(por): %v", err)
	}

	if simple.Table.Len() != 4 || len(realEdges(simple)) != 4 {
		t.Fatalf("simple: expected 4/4, got %d/%d", simple.Table.Len(), len(realEdges(simple)))
	}
	if por.Table.Len() != simple.Table.Len() || len(realEdges(por)) != len(realEdges(simple)) {
		t.Fatalf("POR must not reduce when C0 fails: got %d states/%d edges, want %d/%d",
			por.Table.Len(), len(realEdges(por)), simple.Table.Len(), len(realEdges(simple)))
	}
}

// Scenario 3: havoc path still fails POR via C1 (identical transitive globals
// collide), so the engine falls back to Simple expansion.
func TestPORVisitor_HavocPath_StillFallsBackViaC1(t *testing.T) {
	n, _, tmpl := raceTemplate(t, true)
	n.AddInstance(&nts.Instance{Template: tmpl, Multiplicity: 2})

	simple, err := Build(n, SimpleVisitor{})
	if err != nil {
		t.Fatalf("Build(simple): %v", err)
	}
	tk := emptyTasks(n, tmpl)
	por, err := Build(n, &PORVisitor{Tasks: tk})
	if err != nil {
		t.Fatalf("Build(por): %v", err)
	}
	if por.Table.Len() != simple.Table.Len() || len(realEdges(por)) != len(realEdges(simple)) {
		t.Fatalf("C1 must reject this candidate too: got %d/%d want %d/%d",
			por.Table.Len(), len(realEdges(por)), simple.Table.Len(), len(realEdges(simple)))
	}
}

// Scenario 4: independent writes to disjoint globals — POR reduces to a
// 3-state/2-edge chain.
func TestPORVisitor_IndependentWrites_Reduces(t *testing.T) {
	n := nts.NewNts()
	x := nts.NewVariable("x", nts.Int, nts.ScopeGlobal, "x")
	y := nts.NewVariable("y", nts.Int, nts.ScopeGlobal, "y")
	n.AddGlobal(x)
	n.AddGlobal(y)

	ta := nts.NewBasicNts("A")
	a0 := nts.NewState("a0", "")
	a1 := nts.NewState("a1", "")
	ta.AddState(a0)
	ta.AddState(a1)
	ta.Init = a0
	trA := &nts.Transition{From: a0, To: a1, Kind: nts.FormulaRule, Formula: &nts.And{Conjuncts: []nts.Formula{
		&nts.Havoc{Vars: []*nts.VarRef{{Var: x, Primed: true}}},
		&nts.Relation{Op: nts.Eq, LHS: &nts.VarRef{Var: x, Primed: true}, RHS: &nts.Const{Value: 1}},
	}}}
	ta.AddTransition(trA)
	n.AddTemplate(ta)
	n.AddInstance(&nts.Instance{Template: ta, Multiplicity: 1})

	tb := nts.NewBasicNts("B")
	b0 := nts.NewState("b0", "")
	b1 := nts.NewState("b1", "")
	tb.AddState(b0)
	tb.AddState(b1)
	tb.Init = b0
	trB := &nts.Transition{From: b0, To: b1, Kind: nts.FormulaRule, Formula: &nts.And{Conjuncts: []nts.Formula{
		&nts.Havoc{Vars: []*nts.VarRef{{Var: y, Primed: true}}},
		&nts.Relation{Op: nts.Eq, LHS: &nts.VarRef{Var: y, Primed: true}, RHS: &nts.Const{Value: 1}},
	}}}
	tb.AddTransition(trB)
	n.AddTemplate(tb)
	n.AddInstance(&nts.Instance{Template: tb, Multiplicity: 1})

	tk := &tasks.Tasks{StateInfo: map[*nts.State]*tasks.StateInfo{}, TransitionInfo: map[*nts.Transition]*tasks.TransitionInfo{}}
	fpA := footprint.Compute(n, trA)
	fpB := footprint.Compute(n, trB)
	tk.TransitionInfo[trA] = &tasks.TransitionInfo{Footprint: fpA}
	tk.TransitionInfo[trB] = &tasks.TransitionInfo{Footprint: fpB}
	taskA := &tasks.Task{Name: "A", TransitiveGlobals: fpA}
	taskB := &tasks.Task{Name: "B", TransitiveGlobals: fpB}
	for _, s := range []*nts.State{a0, a1} {
		tk.StateInfo[s] = &tasks.StateInfo{Task: taskA}
	}
	for _, s := range []*nts.State{b0, b1} {
		tk.StateInfo[s] = &tasks.StateInfo{Task: taskB}
	}

	por, err := Build(n, &PORVisitor{Tasks: tk})
	if err != nil {
		t.Fatalf("Build(por): %v", err)
	}
	// spec.md §8 scenario 4 describes this as "2 states, 2 edges" counting
	// only the states discovered beyond the initial one: the initial state
	// plus one ample-reduced edge per thread gives a 3-state linear chain
	// (initial -> after A -> after A,B) and 2 edges, collapsing the 4-state
	// diamond full interleaving would otherwise produce.
	if por.Table.Len() != 3 || len(realEdges(por)) != 2 {
		t.Fatalf("expected POR to reduce to a 3-state/2-edge chain, got %d/%d", por.Table.Len(), len(realEdges(por)))
	}
}

// Scenario 5: self-loop — C3 rejects, falls back to Simple.
func TestPORVisitor_SelfLoop_FallsBackViaC3(t *testing.T) {
	n := nts.NewNts()
	tmpl := nts.NewBasicNts("T")
	s := nts.NewState("s", "")
	tmpl.AddState(s)
	tmpl.Init = s
	loop := &nts.Transition{From: s, To: s, Kind: nts.FormulaRule, Formula: &nts.Havoc{}}
	tmpl.AddTransition(loop)
	n.AddTemplate(tmpl)
	n.AddInstance(&nts.Instance{Template: tmpl, Multiplicity: 1})

	tk := emptyTasks(n, tmpl)

	simple, err := Build(n, SimpleVisitor{})
	if err != nil {
		t.Fatalf("Build(simple): %v", err)
	}
	por, err := Build(n, &PORVisitor{Tasks: tk})
	if err != nil {
		t.Fatalf("Build(por): %v", err)
	}
	if por.Table.Len() != simple.Table.Len() || len(realEdges(por)) != len(realEdges(simple)) {
		t.Fatalf("self-loop must fall back to Simple: got %d/%d want %d/%d",
			por.Table.Len(), len(realEdges(por)), simple.Table.Len(), len(realEdges(simple)))
	}
	if len(realEdges(simple)) != 1 {
		t.Fatalf("expected exactly one self-loop edge, got %d", len(realEdges(simple)))
	}
}

// raceTemplate builds a single-transition template racing on global x:
// havoc=false gives the bare relation x' = x + 1 (scenario 2), havoc=true
// prefixes it with havoc(x) (scenario 3).
func raceTemplate(t *testing.T, havoc bool) (*nts.Nts, *nts.Variable, *nts.BasicNts) {
	t.Helper()
	n := nts.NewNts()
	x := nts.NewVariable("x", nts.Int, nts.ScopeGlobal, "x")
	n.AddGlobal(x)

	tmpl := nts.NewBasicNts("T")
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")
	tmpl.AddState(s0)
	tmpl.AddState(s1)
	tmpl.Init = s0

	rel := &nts.Relation{
		Op:  nts.Eq,
		LHS: &nts.VarRef{Var: x, Primed: true},
		RHS: &nts.BinTerm{Op: "+", LHS: &nts.VarRef{Var: x, Primed: false}, RHS: &nts.Const{Value: 1}},
	}
	var formula nts.Formula = rel
	if havoc {
		formula = &nts.And{Conjuncts: []nts.Formula{
			&nts.Havoc{Vars: []*nts.VarRef{{Var: x, Primed: true}}},
			rel,
		}}
	}
	tmpl.AddTransition(&nts.Transition{From: s0, To: s1, Kind: nts.FormulaRule, Formula: formula})
	n.AddTemplate(tmpl)
	return n, x, tmpl
}

// emptyTasks builds a *tasks.Tasks covering every state/transition of tmpl
// with a single task whose transitive globals equal the union of every
// transition's footprint — mirroring what Decompose would produce for a
// single-task template, without depending on origin-string conventions.
func emptyTasks(n *nts.Nts, tmpl *nts.BasicNts) *tasks.Tasks {
	tk := &tasks.Tasks{StateInfo: map[*nts.State]*tasks.StateInfo{}, TransitionInfo: map[*nts.Transition]*tasks.TransitionInfo{}}
	var fps []footprint.Globals
	for _, tr := range tmpl.Transitions {
		fp := footprint.Compute(n, tr)
		tk.TransitionInfo[tr] = &tasks.TransitionInfo{Footprint: fp}
		fps = append(fps, fp)
	}
	task := &tasks.Task{Name: tmpl.Name, TransitiveGlobals: footprint.UnionAll(fps)}
	for _, s := range tmpl.States {
		tk.StateInfo[s] = &tasks.StateInfo{Task: task}
	}
	return tk
}
