package reqmerge

import (
	"errors"
	"fmt"
)

// Sentinel errors for manifest inputs.
var (
	// ErrNoDependencies indicates a project descriptor carries no
	// [project] dependencies entry to flatten.
	ErrNoDependencies = errors.New("no dependencies found in [project.dependencies]")

	// ErrUnsupportedFile indicates a manifest file extension that is
	// neither requirements text nor a TOML project descriptor.
	ErrUnsupportedFile = errors.New("unsupported manifest file type")
)

// SyntaxError reports an invalid requirement line in a manifest.
// It is fatal to the whole resolution call: no partial manifest or
// report is produced.
type SyntaxError struct {
	// Package is the lowercased package name on the offending line.
	Package string

	// Clause is the raw constraint text that failed to parse.
	Clause string

	// Err is the underlying specifier parse error.
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid specifier for %s: %s", e.Package, e.Clause)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
