package gen

import "github.com/ntsseq/sequentializer/internal/nts"

// rewriter clones a transition rule, rebinding every variable use that has
// side-data: global uses rebind to the global clone, local uses rebind to
// the pid-th per-thread clone. Uses of variables with no side-data (e.g. a
// call's formal parameters) are left alone, per spec.md §4.G step 5.
type rewriter struct {
	info map[*nts.Variable]*varInfo
	pid  int
}

func (rw rewriter) rebind(v *nts.Variable) *nts.Variable {
	vi, ok := rw.info[v]
	if !ok {
		return v
	}
	if vi.global {
		return vi.clone
	}
	if clone, ok := vi.perPid[rw.pid]; ok {
		return clone
	}
	return v
}

func (rw rewriter) varRef(vr *nts.VarRef) *nts.VarRef {
	if vr == nil {
		return nil
	}
	return &nts.VarRef{Var: rw.rebind(vr.Var), Primed: vr.Primed}
}

func (rw rewriter) formula(f nts.Formula) nts.Formula {
	switch n := f.(type) {
	case nil:
		return nil
	case *nts.And:
		out := make([]nts.Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			out[i] = rw.formula(c)
		}
		return &nts.And{Conjuncts: out}
	case *nts.Or:
		out := make([]nts.Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			out[i] = rw.formula(d)
		}
		return &nts.Or{Disjuncts: out}
	case *nts.Not:
		return &nts.Not{Operand: rw.formula(n.Operand)}
	case *nts.Havoc:
		out := make([]*nts.VarRef, len(n.Vars))
		for i, vr := range n.Vars {
			out[i] = rw.varRef(vr)
		}
		return &nts.Havoc{Vars: out}
	case *nts.ArrayWrite:
		return &nts.ArrayWrite{Array: rw.varRef(n.Array), Index: rw.term(n.Index), Value: rw.term(n.Value)}
	case *nts.Relation:
		return &nts.Relation{Op: n.Op, LHS: rw.term(n.LHS), RHS: rw.term(n.RHS)}
	default:
		return f
	}
}

func (rw rewriter) term(t nts.Term) nts.Term {
	switch n := t.(type) {
	case nil:
		return nil
	case *nts.VarRef:
		return rw.varRef(n)
	case *nts.Const:
		return &nts.Const{Value: n.Value}
	case *nts.BinTerm:
		return &nts.BinTerm{Op: n.Op, LHS: rw.term(n.LHS), RHS: rw.term(n.RHS)}
	case *nts.ArrayRead:
		return &nts.ArrayRead{Array: rw.varRef(n.Array), Index: rw.term(n.Index)}
	case *nts.Opaque:
		out := make([]*nts.VarRef, len(n.Reads))
		for i, vr := range n.Reads {
			out[i] = rw.varRef(vr)
		}
		return &nts.Opaque{Reads: out}
	default:
		return t
	}
}

func (rw rewriter) call(c *nts.Call) *nts.Call {
	if c == nil {
		return nil
	}
	outputs := make([]*nts.Variable, len(c.Outputs))
	for i, v := range c.Outputs {
		outputs[i] = rw.rebind(v)
	}
	inputs := make([]nts.Term, len(c.Inputs))
	for i, in := range c.Inputs {
		inputs[i] = rw.term(in)
	}
	return &nts.Call{Outputs: outputs, Inputs: inputs}
}
