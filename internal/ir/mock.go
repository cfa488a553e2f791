package ir

import (
	"context"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// MockLoader is a Loader backed by an in-memory table keyed by path, for
// driver and CLI tests that should not depend on a real IR provider.
type MockLoader struct {
	Programs map[string]*nts.Nts
	Errors   map[string]error
}

// NewMockLoader builds an empty MockLoader.
func NewMockLoader() *MockLoader {
	return &MockLoader{Programs: map[string]*nts.Nts{}, Errors: map[string]error{}}
}

// Add registers n as the program Load returns for path.
func (m *MockLoader) Add(path string, n *nts.Nts) *MockLoader {
	m.Programs[path] = n
	return m
}

// Fail registers err as the error Load returns for path.
func (m *MockLoader) Fail(path string, err error) *MockLoader {
	m.Errors[path] = err
	return m
}

func (m *MockLoader) Load(ctx context.Context, path string, opts LoadOptions) (*nts.Nts, error) {
	if err, ok := m.Errors[path]; ok {
		return nil, err
	}
	if n, ok := m.Programs[path]; ok {
		return n, nil
	}
	return nil, &ConversionError{Path: path, Err: nts.NewInvariantError("ir.MockLoader", "no program registered for %q", path)}
}
