package cfgbuild

import (
	"github.com/ntsseq/sequentializer/internal/cstate"
	"github.com/ntsseq/sequentializer/internal/nts"
)

// SimpleVisitor is the full-interleaving strategy (spec.md §4.E): every
// enabled process, and every outgoing transition of that process's current
// local state, becomes one edge. No reduction is attempted.
type SimpleVisitor struct{}

// Expand appends one edge per (pid, outgoing transition) pair over every
// process slot of cs that is currently running (non-nil).
func (SimpleVisitor) Expand(b *Builder, cs *cstate.ControlState) {
	expandAll(b, cs)
}

// expandAll is the shared "expand every enabled process" routine: SimpleVisitor
// uses it directly, and PORVisitor falls back to it whenever no process
// yields a valid ample set (spec.md §4.F: "no candidate passes: fall back to
// Simple for this state").
func expandAll(b *Builder, cs *cstate.ControlState) {
	for pid := 0; pid < cs.Len(); pid++ {
		s := cs.Slot(pid)
		if s == nil {
			continue
		}
		for _, t := range s.Out() {
			newSlots := make([]*nts.State, len(cs.Slots))
			copy(newSlots, cs.Slots)
			newSlots[pid] = t.To
			target, _ := b.Table.InsertOrGet(newSlots)
			cs.Next = append(cs.Next, &cstate.Edge{From: cs, To: target, Transition: t, Pid: pid})
		}
	}
}
