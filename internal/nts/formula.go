package nts

// Formula is a first-order formula over current- and primed-variable terms,
// restricted to the syntactic shapes spec.md §4.A needs to inspect: a
// conjunction/disjunction/negation tree over relations, Havoc atoms, and
// ArrayWrite atoms. The core never evaluates a Formula symbolically — every
// consumer (footprint analysis, the C0 always-enabled check) only performs
// syntactic pattern matching, per spec.md's Non-goals.
type Formula interface {
	isFormula()
}

// And is the conjunction of its Conjuncts. An empty And is "true".
type And struct {
	Conjuncts []Formula
}

func (*And) isFormula() {}

// Or is the disjunction of its Disjuncts.
type Or struct {
	Disjuncts []Formula
}

func (*Or) isFormula() {}

// Not negates Operand.
type Not struct {
	Operand Formula
}

func (*Not) isFormula() {}

// Havoc is the atomic proposition havoc(V): a nondeterministic assignment to
// every variable referenced in Vars. Each entry must be a primed VarRef.
type Havoc struct {
	Vars []*VarRef
}

func (*Havoc) isFormula() {}

// ArrayWrite is the atomic proposition for an array-write: Array[Index] gets
// Value in the next state. Array is always a primed VarRef onto an Array
// variable.
type ArrayWrite struct {
	Array *VarRef
	Index Term
	Value Term
}

func (*ArrayWrite) isFormula() {}

// RelOp is a relational operator between two terms.
type RelOp int

const (
	Eq RelOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Relation is an atomic proposition relating two terms, e.g. x' = x + 1.
type Relation struct {
	Op  RelOp
	LHS Term
	RHS Term
}

func (*Relation) isFormula() {}

// Term is an arithmetic expression appearing inside a Formula.
type Term interface {
	isTerm()
}

// VarRef is a use of a Variable, either in its current-state or
// next-state (primed) form.
type VarRef struct {
	Var    *Variable
	Primed bool
}

func (*VarRef) isTerm() {}

// Const is an integer literal term.
type Const struct {
	Value int64
}

func (*Const) isTerm() {}

// BinTerm is a binary arithmetic operation (e.g. "+", "-", "*") between two
// terms. The core never evaluates Op; it only walks LHS/RHS for variable
// uses during footprint analysis.
type BinTerm struct {
	Op  string
	LHS Term
	RHS Term
}

func (*BinTerm) isTerm() {}

// ArrayRead is a term reading Array at Index (e.g. a[i]).
type ArrayRead struct {
	Array *VarRef
	Index Term
}

func (*ArrayRead) isTerm() {}

// Opaque is a term the core does not further decompose (e.g. a call
// parameter expression whose internal structure is irrelevant to footprint
// analysis beyond "it might read these variables").
type Opaque struct {
	Reads []*VarRef
}

func (*Opaque) isTerm() {}
