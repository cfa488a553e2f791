package nts

import "testing"

func TestAddTransition_WiresOutAndIn(t *testing.T) {
	tmpl := NewBasicNts("main")
	s0 := NewState("s0", "")
	s1 := NewState("s1", "")
	tmpl.AddState(s0)
	tmpl.AddState(s1)

	tr := &Transition{From: s0, To: s1, Kind: FormulaRule, Formula: &And{}}
	tmpl.AddTransition(tr)

	if len(s0.Out()) != 1 || s0.Out()[0] != tr {
		t.Fatalf("expected s0.Out() to contain tr, got %v", s0.Out())
	}
	if len(s1.In()) != 1 || s1.In()[0] != tr {
		t.Fatalf("expected s1.In() to contain tr, got %v", s1.In())
	}
	if len(tmpl.Transitions) != 1 || tmpl.Transitions[0] != tr {
		t.Fatalf("expected tmpl.Transitions to contain tr")
	}
}

func TestNts_ThreadCount_SumsInstanceMultiplicities(t *testing.T) {
	n := NewNts()
	worker := NewBasicNts("worker")
	n.AddTemplate(worker)
	n.AddInstance(&Instance{Template: worker, Multiplicity: 3})
	n.AddInstance(&Instance{Template: worker, Multiplicity: 2})

	if got := n.ThreadCount(); got != 5 {
		t.Fatalf("ThreadCount() = %d, want 5", got)
	}
}

func TestNts_TemplateByName(t *testing.T) {
	n := NewNts()
	main := NewBasicNts("main")
	worker := NewBasicNts("worker")
	n.AddTemplate(main)
	n.AddTemplate(worker)

	if got := n.TemplateByName("worker"); got != worker {
		t.Fatalf("TemplateByName(worker) = %v, want %v", got, worker)
	}
	if got := n.TemplateByName("missing"); got != nil {
		t.Fatalf("TemplateByName(missing) = %v, want nil", got)
	}
}

func TestVariable_Accessors(t *testing.T) {
	v := NewVariable("x", Int, ScopeGlobal, "orig_x")
	if v.Name() != "x" || v.Type() != Int || v.Scope() != ScopeGlobal || v.Origin() != "orig_x" {
		t.Fatalf("unexpected Variable accessors: %+v", v)
	}
	if !v.IsGlobal() {
		t.Fatalf("expected IsGlobal() true for a ScopeGlobal variable")
	}

	local := NewVariable("y", Bool, ScopeLocal, "")
	if local.IsGlobal() {
		t.Fatalf("expected IsGlobal() false for a ScopeLocal variable")
	}
}

func TestType_String(t *testing.T) {
	cases := map[Type]string{Int: "int", Bool: "bool", Array: "array", Type(99): "unknown"}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("Type(%d).String() = %q, want %q", typ, got, want)
		}
	}
}

func TestInvariantError_Error(t *testing.T) {
	err := NewInvariantError("cstate.Table", "duplicate state %q", "s0")
	want := `cstate.Table: invariant violated: duplicate state "s0"`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &InvariantError{Message: "bare"}
	if bare.Error() != "invariant violated: bare" {
		t.Fatalf("Error() = %q, want %q", bare.Error(), "invariant violated: bare")
	}
}
