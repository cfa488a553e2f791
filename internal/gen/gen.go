// Package gen implements the target NTS generator (spec.md §4.G): given a
// completed CFG, it allocates a single-threaded target Nts, clones every
// variable exactly once, clones every control state into a target state, and
// rewrites every logged CFG edge into a target transition.
package gen

import (
	"fmt"

	"github.com/ntsseq/sequentializer/internal/cfgbuild"
	"github.com/ntsseq/sequentializer/internal/cstate"
	"github.com/ntsseq/sequentializer/internal/nts"
	"github.com/ntsseq/sequentializer/internal/tasks"
)

// MainTemplateName is the name of the target Nts's sole thread template.
const MainTemplateName = "main"

// varInfo is the generator's own side-data, scoped to one Generate call and
// never attached to the input Nts's types — spec.md §4.G step 6 requires
// that "no side-data remains on the input NTS" after generation; here that
// holds by construction, since nts.Variable and nts.State carry no back-
// pointer field a generator could even write into.
type varInfo struct {
	global bool
	clone  *nts.Variable            // set when global
	perPid map[int]*nts.Variable    // set when local: pid -> clone
}

// Generate builds the target Nts for a completed build. tk, if non-nil, has
// Clear called on it once generation completes, releasing the task
// decomposer's own side tables (spec.md §4.G step 6's teardown, for the part
// of "side-data" that does live in caller-visible storage).
func Generate(b *cfgbuild.Builder, orig *nts.Nts, tk *tasks.Tasks) (*nts.Nts, error) {
	target := nts.NewNts()
	mainTmpl := nts.NewBasicNts(MainTemplateName)
	target.AddTemplate(mainTmpl)
	target.AddInstance(&nts.Instance{Template: mainTmpl, Multiplicity: 1})

	info := map[*nts.Variable]*varInfo{}

	// Step 2: clone globals.
	for k, v := range orig.Globals {
		clone := nts.NewVariable(fmt.Sprintf("gvar_%d", k), v.Type(), nts.ScopeGlobal, v.Origin())
		target.AddGlobal(clone)
		info[v] = &varInfo{global: true, clone: clone}
	}

	// Step 3: clone locals, one set of clones per thread, in instance order.
	varID := 0
	threadID := 0
	for _, inst := range orig.Instances {
		for m := 0; m < inst.Multiplicity; m++ {
			for _, v := range inst.Template.Locals {
				vi, ok := info[v]
				if !ok {
					vi = &varInfo{perPid: map[int]*nts.Variable{}}
					info[v] = vi
				}
				origin := fmt.Sprintf("%s [ %d ] :: %s", inst.Template.Name, threadID, v.Origin())
				clone := nts.NewVariable(fmt.Sprintf("var_%d", varID), v.Type(), nts.ScopeLocal, origin)
				mainTmpl.AddLocal(clone)
				vi.perPid[threadID] = clone
				varID++
			}
			threadID++
		}
	}

	// Step 4: clone states.
	stateFor := map[*cstate.ControlState]*nts.State{}
	for k, cs := range b.Table.All() {
		st := nts.NewState(fmt.Sprintf("st_%d", k), controlStateOrigin(cs))
		mainTmpl.AddState(st)
		stateFor[cs] = st
	}
	if initTarget, ok := stateFor[b.Initial]; ok {
		mainTmpl.Init = initTarget
	}

	// Step 5: rewrite edges, in DFS discovery (edge-log) order. EdgeLog[0] is
	// always the synthetic initial edge and contributes no transition.
	for _, e := range b.EdgeLog {
		if e.Transition == nil {
			continue
		}
		from, ok := stateFor[e.From]
		if !ok {
			return nil, nts.NewInvariantError("gen.Generate", "edge references a control state with no target clone")
		}
		to, ok := stateFor[e.To]
		if !ok {
			return nil, nts.NewInvariantError("gen.Generate", "edge references a control state with no target clone")
		}

		rw := rewriter{info: info, pid: e.Pid}
		tr := &nts.Transition{From: from, To: to, Kind: e.Transition.Kind}
		switch e.Transition.Kind {
		case nts.FormulaRule:
			tr.Formula = rw.formula(e.Transition.Formula)
		case nts.CallRule:
			tr.Call = rw.call(e.Transition.Call)
		}
		mainTmpl.AddTransition(tr)
	}

	if tk != nil {
		tk.Clear()
	}

	return target, nil
}

// controlStateOrigin renders "( o0 | o1 | ... | on-1 )" per spec.md §4.G
// step 4, using "-" for a nil (not-running) slot.
func controlStateOrigin(cs *cstate.ControlState) string {
	out := "("
	for i := 0; i < cs.Len(); i++ {
		if i > 0 {
			out += " | "
		} else {
			out += " "
		}
		if s := cs.Slot(i); s != nil {
			out += s.Origin
		} else {
			out += "-"
		}
	}
	return out + " )"
}
