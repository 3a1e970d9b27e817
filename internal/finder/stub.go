//go:build !cgo

package finder

import (
	"context"
	stderrors "errors"
)

// ErrNoCGO is the cause of every parse failure in builds without CGO.
var ErrNoCGO = stderrors.New("PHP parsing requires CGO (tree-sitter)")

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

// Find implements Finder. Without CGO nothing can be parsed.
func (d *DebugCalls) Find(ctx context.Context, src []byte) ([]Instance, error) {
	return nil, parseError("parser unavailable", ErrNoCGO)
}

// Find implements Finder. Without CGO nothing can be parsed.
func (f *FacadeAliases) Find(ctx context.Context, src []byte) ([]Instance, error) {
	return nil, parseError("parser unavailable", ErrNoCGO)
}
