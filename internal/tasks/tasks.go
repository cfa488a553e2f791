// Package tasks implements the task decomposer (spec.md §4.B): it partitions
// the states of every top-level thread template into tasks, attaches task
// identity to each state, and computes per-transition and per-task
// read/write footprints over global variables.
package tasks

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ntsseq/sequentializer/internal/footprint"
	"github.com/ntsseq/sequentializer/internal/nts"
)

// idleWorkerTaskName is the synthetic name of the task collecting states
// whose origin has no ':' prefix separator. It is never added to Tasks.All
// or given a task number — it exists only to locate task entry/exit edges.
const idleWorkerTaskName = "__idle_worker_task__"

// Task is a maximal group of local states within a thread template sharing a
// common origin prefix, per spec.md §3.
type Task struct {
	Name   string
	Number int

	States  []*nts.State
	Initial []*nts.State
	Final   []*nts.State

	DirectGlobals     footprint.Globals
	TransitiveGlobals footprint.Globals

	hasNumber bool
}

// StateInfo is the side-data attached to every state by Decompose: the task
// it belongs to.
type StateInfo struct {
	Task *Task
}

// TransitionInfo is the side-data attached to every transition of every
// top-level template by Decompose: its computed global footprint.
type TransitionInfo struct {
	Footprint footprint.Globals
}

// Tasks is the result of decomposing an Nts: every task (sorted, numbered
// 0..k-1 with 0 reserved for main), plus the side tables spec.md's
// "Lifecycles" describes as owned by the decomposer and cleared by the
// target-NTS generator before it returns.
type Tasks struct {
	// All holds every task except the idle-worker task, sorted by Number.
	All []*Task

	Main *Task

	StateInfo      map[*nts.State]*StateInfo
	TransitionInfo map[*nts.Transition]*TransitionInfo

	idle *Task
}

// TaskOf returns the task a state was assigned to, or nil if the state was
// never visited by Decompose (e.g. it belongs to a non-top-level template).
func (t *Tasks) TaskOf(s *nts.State) *Task {
	if si, ok := t.StateInfo[s]; ok {
		return si.Task
	}
	return nil
}

// Clear removes every side-data entry, per the generator's post-condition
// that no side-data remains on the input Nts after sequentialization
// completes.
func (t *Tasks) Clear() {
	for k := range t.StateInfo {
		delete(t.StateInfo, k)
	}
	for k := range t.TransitionInfo {
		delete(t.TransitionInfo, k)
	}
}

// Decompose partitions the states of every top-level thread template
// (templates referenced by at least one Instance) into tasks and computes
// their footprints, per spec.md §4.B.
//
// Preconditions: n is flat (call rules are opaque); every local state not
// belonging to the main template carries a non-empty Origin annotation.
// Violating any of the numbered invariants below is a programmer bug and is
// reported as an *nts.InvariantError, never recovered from.
func Decompose(n *nts.Nts, mainName string) (*Tasks, error) {
	tk := &Tasks{
		StateInfo:      map[*nts.State]*StateInfo{},
		TransitionInfo: map[*nts.Transition]*TransitionInfo{},
		idle:           &Task{Name: idleWorkerTaskName, Number: -1},
	}

	toplevel := topLevelTemplates(n)

	byName := map[string]*Task{}
	var order []*Task // discovery order, re-sorted by number at the end

	assign := func(s *nts.State, task *Task) error {
		if _, exists := tk.StateInfo[s]; exists {
			return nts.NewInvariantError("tasks.Decompose", "state %q already has task side-data", s.Name)
		}
		tk.StateInfo[s] = &StateInfo{Task: task}
		task.States = append(task.States, s)
		return nil
	}

	for _, bn := range toplevel {
		if bn.Name == mainName {
			main, ok := byName[mainName]
			if !ok {
				main = &Task{Name: mainName}
				byName[mainName] = main
				order = append(order, main)
				tk.Main = main
			}
			for _, s := range bn.States {
				if err := assign(s, main); err != nil {
					return nil, err
				}
			}
			continue
		}

		for _, s := range bn.States {
			prefix, hasPrefix := taskPrefix(s.Origin)
			if !hasPrefix {
				if err := assign(s, tk.idle); err != nil {
					return nil, err
				}
				continue
			}
			task, ok := byName[prefix]
			if !ok {
				task = &Task{Name: prefix}
				byName[prefix] = task
				order = append(order, task)
				if prefix == mainName {
					tk.Main = task
				}
			}
			if err := assign(s, task); err != nil {
				return nil, err
			}
		}
	}

	// Step 3: per-transition footprint, over every top-level template.
	for _, bn := range toplevel {
		for _, t := range bn.Transitions {
			tk.TransitionInfo[t] = &TransitionInfo{Footprint: footprint.Compute(n, t)}
		}
	}

	// Step 4: direct_globals per task.
	for _, task := range order {
		var fps []footprint.Globals
		for _, s := range task.States {
			for _, t := range s.Out() {
				if ti, ok := tk.TransitionInfo[t]; ok {
					fps = append(fps, ti.Footprint)
				}
			}
		}
		task.DirectGlobals = footprint.UnionAll(fps)
	}

	// Step 5: task entry/exit via the idle-worker task, and task numbering.
	for _, idleState := range tk.idle.States {
		for _, t := range idleState.In() {
			fromTask := tk.TaskOf(t.From)
			if fromTask != nil && fromTask != tk.idle {
				fromTask.Final = append(fromTask.Final, t.From)
			}
		}
		for _, t := range idleState.Out() {
			toTask := tk.TaskOf(t.To)
			if toTask == nil || toTask == tk.idle {
				continue
			}
			toTask.Initial = append(toTask.Initial, t.To)

			n, err := taskNumberFromOrigin(idleState.Origin)
			if err != nil {
				return nil, nts.NewInvariantError("tasks.Decompose", "%s", err.Error())
			}
			if n == 0 {
				return nil, nts.NewInvariantError("tasks.Decompose", "task number 0 is reserved for main (from state %q)", idleState.Name)
			}
			if toTask.hasNumber && toTask.Number != n {
				return nil, nts.NewInvariantError("tasks.Decompose", "task %q has conflicting numbers %d and %d", toTask.Name, toTask.Number, n)
			}
			toTask.Number = n
			toTask.hasNumber = true
		}
	}

	// Main is instantiated directly: no idle->main transition exists, so its
	// number and initial/final states are derived from the template itself.
	if tk.Main != nil {
		tk.Main.Number = 0
		tk.Main.hasNumber = true
		if mainBn := n.TemplateByName(mainName); mainBn != nil {
			if mainBn.Init != nil {
				tk.Main.Initial = append(tk.Main.Initial, mainBn.Init)
			}
			tk.Main.Final = append(tk.Main.Final, mainBn.Finals...)
		}
	}

	// Step 6: stable sort by number, require [0, k-1].
	sort.SliceStable(order, func(i, j int) bool { return order[i].Number < order[j].Number })
	for i, task := range order {
		if !task.hasNumber {
			return nil, nts.NewInvariantError("tasks.Decompose", "task %q has no assigned number", task.Name)
		}
		if task.Number != i {
			return nil, nts.NewInvariantError("tasks.Decompose", "task numbering is not a bijection onto [0,k-1]: task %q has number %d at position %d", task.Name, task.Number, i)
		}
	}
	tk.All = order

	// Step 7: transitive_globals is the union across all tasks, assigned
	// identically to every task. This looks redundant — see DESIGN.md's Open
	// Question note — but is kept per spec.md §4.B step 7.
	var all []footprint.Globals
	for _, task := range order {
		all = append(all, task.DirectGlobals)
	}
	union := footprint.UnionAll(all)
	for _, task := range order {
		task.TransitiveGlobals = union
	}

	return tk, nil
}

func topLevelTemplates(n *nts.Nts) []*nts.BasicNts {
	seen := map[*nts.BasicNts]struct{}{}
	var out []*nts.BasicNts
	for _, inst := range n.Instances {
		if _, ok := seen[inst.Template]; ok {
			continue
		}
		seen[inst.Template] = struct{}{}
		out = append(out, inst.Template)
	}
	return out
}

// taskPrefix extracts the substring of origin before its first ':'. The
// second return value is false when origin contains no ':' at all, meaning
// the state belongs to the idle-worker task.
func taskPrefix(origin string) (string, bool) {
	idx := strings.IndexByte(origin, ':')
	if idx < 0 {
		return "", false
	}
	return origin[:idx], true
}

const runningPrefix = "s_running_"

// taskNumberFromOrigin parses the decimal task number out of an idle-worker
// state's origin, which must begin with the literal prefix "s_running_".
func taskNumberFromOrigin(origin string) (int, error) {
	if !strings.HasPrefix(origin, runningPrefix) {
		return 0, nts.NewInvariantError("tasks.Decompose", "idle-worker predecessor origin %q does not begin with %q", origin, runningPrefix)
	}
	digits := origin[len(runningPrefix):]
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, nts.NewInvariantError("tasks.Decompose", "idle-worker predecessor origin %q has no decimal task number", origin)
	}
	return n, nil
}
