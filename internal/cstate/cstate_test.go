package cstate

import (
	"testing"

	"github.com/ntsseq/sequentializer/internal/nts"
)

func TestTable_InsertOrGet_DedupesEqualSlots(t *testing.T) {
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")

	tbl := NewTable()

	first, created := tbl.InsertOrGet([]*nts.State{s0, s1})
	if !created {
		t.Fatalf("expected first insert to be created")
	}
	second, created := tbl.InsertOrGet([]*nts.State{s0, s1})
	if created {
		t.Fatalf("expected the equal vector to be deduped, not created")
	}
	if first != second {
		t.Fatalf("expected InsertOrGet to return the same *ControlState for equal slots")
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 interned control state, got %d", tbl.Len())
	}
}

func TestTable_InsertOrGet_DistinctSlotsGetDistinctStates(t *testing.T) {
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")

	tbl := NewTable()

	a, _ := tbl.InsertOrGet([]*nts.State{s0})
	b, _ := tbl.InsertOrGet([]*nts.State{s1})
	if a == b {
		t.Fatalf("expected distinct slot vectors to intern to distinct control states")
	}
	if a.Index() == b.Index() {
		t.Fatalf("expected distinct arena indices, got %d and %d", a.Index(), b.Index())
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 interned control states, got %d", tbl.Len())
	}
}

func TestTable_Get_NonOwningLookupNeverInserts(t *testing.T) {
	s0 := nts.NewState("s0", "")
	tbl := NewTable()

	if got := tbl.Get([]*nts.State{s0}); got != nil {
		t.Fatalf("expected Get on an empty table to return nil, got %v", got)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected Get to never insert, table has %d entries", tbl.Len())
	}

	inserted, _ := tbl.InsertOrGet([]*nts.State{s0})
	if got := tbl.Get([]*nts.State{s0}); got != inserted {
		t.Fatalf("expected Get to find the previously interned state")
	}
}

func TestTable_InsertOrGet_NotRunningSlotDistinctFromAnyState(t *testing.T) {
	s0 := nts.NewState("s0", "")
	tbl := NewTable()

	running, _ := tbl.InsertOrGet([]*nts.State{s0})
	notRunning, created := tbl.InsertOrGet([]*nts.State{nil})
	if !created {
		t.Fatalf("expected the not-running slot vector to be a distinct control state")
	}
	if running == notRunning {
		t.Fatalf("expected a nil slot to never equal a real state slot")
	}
}

func TestControlState_SlotAndLen(t *testing.T) {
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")
	tbl := NewTable()

	cs, _ := tbl.InsertOrGet([]*nts.State{s0, s1})
	if cs.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", cs.Len())
	}
	if cs.Slot(0) != s0 || cs.Slot(1) != s1 {
		t.Fatalf("Slot did not return the expected per-thread states")
	}
}

func TestStatus_String(t *testing.T) {
	cases := map[Status]string{
		New:     "new",
		OnStack: "on_stack",
		Closed:  "closed",
		Status(99): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestTable_All_ReturnsArenaInsertionOrder(t *testing.T) {
	s0 := nts.NewState("s0", "")
	s1 := nts.NewState("s1", "")
	tbl := NewTable()

	a, _ := tbl.InsertOrGet([]*nts.State{s0})
	b, _ := tbl.InsertOrGet([]*nts.State{s1})

	all := tbl.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Fatalf("expected All() in insertion order [a, b], got %v", all)
	}
}
