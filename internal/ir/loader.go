// Package ir provides the driver's external collaborators: an IR Loader
// that turns a textual NTS file into internal/nts's in-memory model, and an
// Inliner that flattens call rules before sequentialization. Both are
// interfaces — the textual grammar and the inlining transformation rules
// themselves are out of scope for this repository (spec.md §1) and are
// expected to be supplied by the IR library this tool is embedded in.
package ir

import (
	"context"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// LoadOptions configures a Loader call. ThreadPoolSize is the only option
// spec.md's external interface names; it is a hint passed through to the
// provider, not interpreted by this package.
type LoadOptions struct {
	ThreadPoolSize int
}

// Loader loads an Nts from a path. Load returns a *ConversionError when the
// input is well-formed as a file but rejected by IR conversion (spec.md §7's
// "input rejection" class, CLI exit code 1); any other error is an
// "internal failure" (exit code 2).
type Loader interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*nts.Nts, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context, path string, opts LoadOptions) (*nts.Nts, error)

func (f LoaderFunc) Load(ctx context.Context, path string, opts LoadOptions) (*nts.Nts, error) {
	return f(ctx, path, opts)
}
