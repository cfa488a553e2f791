package tasks

import (
	"testing"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// buildWorkerFixture builds a template with an idle-worker region and two
// numbered tasks, mirroring spec.md §8 scenario 6.
func buildWorkerFixture(t *testing.T) *nts.Nts {
	t.Helper()
	n := nts.NewNts()

	worker := nts.NewBasicNts("worker")
	idle := nts.NewState("s_idle", "s_idle")
	running1 := nts.NewState("sr1", "s_running_1")
	running2 := nts.NewState("sr2", "s_running_2")
	initT1 := nts.NewState("initT1", "T1:init")
	finT1 := nts.NewState("finT1", "T1:fin")
	initT2 := nts.NewState("initT2", "T2:init")
	finT2 := nts.NewState("finT2", "T2:fin")

	for _, s := range []*nts.State{idle, running1, running2, initT1, finT1, initT2, finT2} {
		worker.AddState(s)
	}
	worker.Init = idle

	trueFormula := &nts.And{}
	edges := [][2]*nts.State{
		{idle, running1},
		{running1, initT1},
		{finT1, idle},
		{idle, running2},
		{running2, initT2},
		{finT2, idle},
		{initT1, finT1},
		{initT2, finT2},
	}
	for _, e := range edges {
		worker.AddTransition(&nts.Transition{From: e[0], To: e[1], Kind: nts.FormulaRule, Formula: trueFormula})
	}

	n.AddTemplate(worker)
	n.AddInstance(&nts.Instance{Template: worker, Multiplicity: 1})

	main := nts.NewBasicNts("main")
	m0 := nts.NewState("m0", "")
	main.AddState(m0)
	main.Init = m0
	main.Finals = []*nts.State{m0}
	n.AddTemplate(main)
	n.AddInstance(&nts.Instance{Template: main, Multiplicity: 1})

	return n
}

func TestDecompose_NumbersTasksAndEntryExit(t *testing.T) {
	n := buildWorkerFixture(t)

	tk, err := Decompose(n, "main")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(tk.All) != 3 {
		t.Fatalf("expected 3 tasks (main, T1, T2), got %d", len(tk.All))
	}
	for i, task := range tk.All {
		if task.Number != i {
			t.Fatalf("task numbering is not a bijection onto [0,k-1]: position %d has number %d", i, task.Number)
		}
	}

	var t1, t2 *Task
	for _, task := range tk.All {
		switch task.Name {
		case "T1":
			t1 = task
		case "T2":
			t2 = task
		}
	}
	if t1 == nil || t2 == nil {
		t.Fatalf("expected tasks T1 and T2 to exist")
	}
	if t1.Number != 1 || t2.Number != 2 {
		t.Fatalf("expected T1=1, T2=2, got T1=%d T2=%d", t1.Number, t2.Number)
	}
	if len(t1.Initial) != 1 || t1.Initial[0].Name != "initT1" {
		t.Fatalf("expected T1's initial state to be initT1")
	}
	if len(t1.Final) != 1 || t1.Final[0].Name != "finT1" {
		t.Fatalf("expected T1's final state to be finT1")
	}
}

func TestDecompose_ReservedZeroIsFatal(t *testing.T) {
	n := nts.NewNts()
	worker := nts.NewBasicNts("worker")
	idle := nts.NewState("s_idle", "s_idle")
	running0 := nts.NewState("sr0", "s_running_0")
	initT1 := nts.NewState("initT1", "T1:init")
	worker.AddState(idle)
	worker.AddState(running0)
	worker.AddState(initT1)
	worker.Init = idle
	f := &nts.And{}
	worker.AddTransition(&nts.Transition{From: idle, To: running0, Kind: nts.FormulaRule, Formula: f})
	worker.AddTransition(&nts.Transition{From: running0, To: initT1, Kind: nts.FormulaRule, Formula: f})
	n.AddTemplate(worker)
	n.AddInstance(&nts.Instance{Template: worker, Multiplicity: 1})

	main := nts.NewBasicNts("main")
	m0 := nts.NewState("m0", "")
	main.AddState(m0)
	main.Init = m0
	n.AddTemplate(main)
	n.AddInstance(&nts.Instance{Template: main, Multiplicity: 1})

	if _, err := Decompose(n, "main"); err == nil {
		t.Fatalf("expected an error when task number 0 is used by a non-main task")
	}
}

func TestDecompose_TransitiveGlobalsEqualAcrossTasks(t *testing.T) {
	n := buildWorkerFixture(t)
	tk, err := Decompose(n, "main")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	for _, task := range tk.All {
		if task.TransitiveGlobals.Everything != tk.All[0].TransitiveGlobals.Everything {
			t.Fatalf("transitive globals must be identical across all tasks")
		}
	}
}
