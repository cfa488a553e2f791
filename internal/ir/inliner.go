package ir

import "github.com/ntsseq/sequentializer/internal/nts"

// Inliner flattens an Nts's call rules into formula rules so that every
// Transition reaching the sequentializer core is a FormulaRule — the core
// itself never interprets a Call's target procedure (spec.md §1's
// Non-goals: the inlining transformation rules are an external
// collaborator). Inline must be idempotent: calling it twice on its own
// output must return an equivalent Nts, since the driver may be handed
// already-inlined input.
type Inliner interface {
	Inline(n *nts.Nts) (*nts.Nts, error)
}

// InlinerFunc adapts a function to an Inliner.
type InlinerFunc func(n *nts.Nts) (*nts.Nts, error)

func (f InlinerFunc) Inline(n *nts.Nts) (*nts.Nts, error) { return f(n) }

// IdentityInliner is a no-op Inliner for callers whose Loader already
// produces a fully flattened Nts. It is trivially idempotent.
var IdentityInliner Inliner = InlinerFunc(func(n *nts.Nts) (*nts.Nts, error) {
	return n, nil
})

// RequireFlat wraps an Inliner so that its output is checked for leftover
// CallRule transitions and rejected with a *ConversionError rather than
// silently handed to the sequentializer core, which has no way to assign a
// footprint or task membership to an un-inlined call.
func RequireFlat(inl Inliner) Inliner {
	return InlinerFunc(func(n *nts.Nts) (*nts.Nts, error) {
		out, err := inl.Inline(n)
		if err != nil {
			return nil, err
		}
		for _, tmpl := range out.Templates {
			for _, t := range tmpl.Transitions {
				if t.Kind == nts.CallRule {
					return nil, &ConversionError{Err: nts.NewInvariantError(
						"ir.RequireFlat", "template %q retains an un-inlined call rule after inlining", tmpl.Name)}
				}
			}
		}
		return out, nil
	})
}
