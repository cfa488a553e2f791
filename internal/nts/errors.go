package nts

import "fmt"

// InvariantError reports a programmer-bug-class failure: a precondition the
// spec names as fatal was violated (duplicate initial state, double
// interning, missing side-data, a duplicate or missing task number, an
// unexpected node variant reached during traversal). These are never
// retried — the caller is expected to abort the build.
type InvariantError struct {
	// Component names the subsystem that detected the violation, e.g.
	// "tasks.Decompose" or "cstate.Table.Insert".
	Component string

	// Message describes the violated invariant.
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: invariant violated: %s", e.Component, e.Message)
	}
	return "invariant violated: " + e.Message
}

// NewInvariantError builds an InvariantError, formatting Message with fmt.Sprintf.
func NewInvariantError(component, format string, args ...any) *InvariantError {
	return &InvariantError{Component: component, Message: fmt.Sprintf(format, args...)}
}
