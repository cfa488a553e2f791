// Package cstate implements the product-state table (spec.md §4.C): a
// hash-consed set of control states — ordered vectors of per-thread local
// states — together with the DFS bookkeeping the CFG builder (spec.md §4.D)
// needs to drive an iterative depth-first construction.
//
// The table keeps every interned ControlState in an arena slice and each
// ControlState knows its own Index in it, but edges and the DFS ReachedFrom
// link are plain pointers. The arena holds pointers, so growing it never
// moves a ControlState and outstanding pointers stay valid.
package cstate

import (
	"hash/fnv"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// Status is a control state's place in the builder's depth-first search, per
// spec.md §3 "DFS info".
type Status int

const (
	// New control states have never been delivered to a visitor.
	New Status = iota
	// OnStack control states are on the path from the initial state to the
	// state currently being expanded, via ReachedFrom.
	OnStack
	// Closed control states have had every outgoing edge visited.
	Closed
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case OnStack:
		return "on_stack"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Edge is a CFG edge: (from, to, transition, pid), where pid is the index in
// the control-state vector of the thread whose transition fired. The
// synthetic initial edge has From == nil and Transition == nil.
type Edge struct {
	From       *ControlState
	To         *ControlState
	Transition *nts.Transition
	Pid        int
}

// ControlState is the product of per-thread local states (spec.md §3). A nil
// entry in Slots is the reserved "not running" marker; the core never
// produces one today, but the slot exists so future callers can represent a
// thread that has not yet started.
type ControlState struct {
	index int
	Slots []*nts.State

	// DFS bookkeeping, mutated only by the CFG builder (internal/cfgbuild).
	Status      Status
	ReachedFrom *ControlState
	VisitedNext int
	Next        []*Edge
}

// Index returns the control state's stable position in its owning Table's
// arena. Index order is table-insertion order (InsertOrGet calls), not DFS
// discovery order: internal/cfgbuild interns every successor of a state when
// it expands that state, before any of them is descended into.
func (cs *ControlState) Index() int { return cs.index }

// Slot returns the local state of thread pid, or nil if that slot holds the
// "not running" marker.
func (cs *ControlState) Slot(pid int) *nts.State { return cs.Slots[pid] }

// Len returns the control state's thread count.
func (cs *ControlState) Len() int { return len(cs.Slots) }

// Table is the hash-consed set of control states, compared by the
// structural equality of their process-state vectors (spec.md's I1: no two
// distinct control states in the table are equal).
type Table struct {
	arena []*ControlState
	// buckets maps a fingerprint hash to every control state sharing it,
	// per spec.md §9's "hash map from a fingerprint ... or a hash set of
	// indices with a custom hasher that dereferences into the arena". A
	// bucket list (rather than trusting the hash to be collision-free)
	// keeps equality the source of truth, matching derref_equal in the
	// original implementation.
	buckets map[uint64][]*ControlState

	// ids assigns a stable, small integer identity to each distinct
	// *nts.State the table has ever seen, so the fingerprint hash does not
	// depend on pointer representation.
	ids    map[*nts.State]uint64
	nextID uint64
}

// NewTable creates an empty product-state table.
func NewTable() *Table {
	return &Table{buckets: map[uint64][]*ControlState{}, ids: map[*nts.State]uint64{}}
}

func (t *Table) idOf(s *nts.State) uint64 {
	if s == nil {
		return 0
	}
	if id, ok := t.ids[s]; ok {
		return id
	}
	t.nextID++
	id := t.nextID
	t.ids[s] = id
	return id
}

func (t *Table) fingerprint(slots []*nts.State) uint64 {
	h := fnv.New64a()
	var buf [9]byte
	for _, s := range slots {
		id := t.idOf(s)
		notRunning := byte(0)
		if s == nil {
			notRunning = 1
		}
		buf[0] = notRunning
		for i := 0; i < 8; i++ {
			buf[1+i] = byte(id >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func equalSlots(a, b []*nts.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Get performs a non-owning lookup: it returns the interned control state
// matching slots, or nil if none is present. It never inserts.
func (t *Table) Get(slots []*nts.State) *ControlState {
	fp := t.fingerprint(slots)
	for _, cs := range t.buckets[fp] {
		if equalSlots(cs.Slots, slots) {
			return cs
		}
	}
	return nil
}

// InsertOrGet interns slots: if an equal control state is already present it
// is returned with created=false and slots is discarded; otherwise a new
// control state is allocated, appended to the arena, and returned with
// created=true.
func (t *Table) InsertOrGet(slots []*nts.State) (cs *ControlState, created bool) {
	if existing := t.Get(slots); existing != nil {
		return existing, false
	}
	owned := make([]*nts.State, len(slots))
	copy(owned, slots)
	cs = &ControlState{index: len(t.arena), Slots: owned}
	t.arena = append(t.arena, cs)
	fp := t.fingerprint(owned)
	t.buckets[fp] = append(t.buckets[fp], cs)
	return cs, true
}

// All returns every interned control state, in arena (insertion) order. The
// returned slice aliases the table's internal arena and must not be mutated.
func (t *Table) All() []*ControlState { return t.arena }

// Len returns the number of interned control states.
func (t *Table) Len() int { return len(t.arena) }
