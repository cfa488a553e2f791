// Package printer renders a generated *nts.Nts to text. The real wire format
// an IR library would use is out of scope (spec.md §6 names it an external
// collaborator); DefaultPrinter exists so the CLI and tests have something
// runnable, not as a claim about any production NTS text format.
package printer

import (
	"fmt"
	"io"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// Printer renders n to w.
type Printer interface {
	Print(w io.Writer, n *nts.Nts) error
}

// DefaultPrinter is a minimal, deterministic text rendering: one line per
// global, per template, per state, and per transition, in declaration order.
type DefaultPrinter struct{}

func (DefaultPrinter) Print(w io.Writer, n *nts.Nts) error {
	p := &printState{w: w}
	for _, v := range n.Globals {
		p.printf("global %s : %s\n", v.Name(), v.Type())
	}
	for _, tmpl := range n.Templates {
		p.printf("thread %s {\n", tmpl.Name)
		for _, v := range tmpl.Locals {
			p.printf("  local %s : %s\n", v.Name(), v.Type())
		}
		for _, s := range tmpl.States {
			marker := ""
			if s == tmpl.Init {
				marker = " [init]"
			}
			p.printf("  state %s%s\n", s.Name, marker)
		}
		for _, t := range tmpl.Transitions {
			p.printTransition(t)
		}
		p.printf("}\n")
	}
	for _, inst := range n.Instances {
		p.printf("instance %s x%d\n", inst.Template.Name, inst.Multiplicity)
	}
	return p.err
}

type printState struct {
	w   io.Writer
	err error
}

func (p *printState) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printState) printTransition(t *nts.Transition) {
	switch t.Kind {
	case nts.CallRule:
		p.printf("  %s -> %s : call(%d outputs, %d inputs)\n", t.From.Name, t.To.Name, len(t.Call.Outputs), len(t.Call.Inputs))
	default:
		p.printf("  %s -> %s : %s\n", t.From.Name, t.To.Name, formatFormula(t.Formula))
	}
}

func formatFormula(f nts.Formula) string {
	switch v := f.(type) {
	case *nts.And:
		return joinFormulas(v.Conjuncts, " && ", "true")
	case *nts.Or:
		return joinFormulas(v.Disjuncts, " || ", "false")
	case *nts.Not:
		return "!(" + formatFormula(v.Operand) + ")"
	case *nts.Havoc:
		return "havoc(" + joinVarRefs(v.Vars) + ")"
	case *nts.ArrayWrite:
		return fmt.Sprintf("%s[%s] := %s", formatVarRef(v.Array), formatTerm(v.Index), formatTerm(v.Value))
	case *nts.Relation:
		return fmt.Sprintf("%s %s %s", formatTerm(v.LHS), relOpString(v.Op), formatTerm(v.RHS))
	default:
		return "?"
	}
}

func joinFormulas(fs []nts.Formula, sep, empty string) string {
	if len(fs) == 0 {
		return empty
	}
	out := formatFormula(fs[0])
	for _, f := range fs[1:] {
		out += sep + formatFormula(f)
	}
	return out
}

func joinVarRefs(vs []*nts.VarRef) string {
	if len(vs) == 0 {
		return ""
	}
	out := formatVarRef(vs[0])
	for _, v := range vs[1:] {
		out += ", " + formatVarRef(v)
	}
	return out
}

func formatVarRef(v *nts.VarRef) string {
	if v.Primed {
		return v.Var.Name() + "'"
	}
	return v.Var.Name()
}

func formatTerm(t nts.Term) string {
	switch v := t.(type) {
	case *nts.VarRef:
		return formatVarRef(v)
	case *nts.Const:
		return fmt.Sprintf("%d", v.Value)
	case *nts.BinTerm:
		return fmt.Sprintf("(%s %s %s)", formatTerm(v.LHS), v.Op, formatTerm(v.RHS))
	case *nts.ArrayRead:
		return fmt.Sprintf("%s[%s]", formatVarRef(v.Array), formatTerm(v.Index))
	case *nts.Opaque:
		return "<opaque>"
	default:
		return "?"
	}
}

func relOpString(op nts.RelOp) string {
	switch op {
	case nts.Eq:
		return "="
	case nts.Ne:
		return "!="
	case nts.Lt:
		return "<"
	case nts.Le:
		return "<="
	case nts.Gt:
		return ">"
	case nts.Ge:
		return ">="
	default:
		return "?"
	}
}
