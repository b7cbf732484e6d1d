package reqmerge

import "github.com/reqmerge/go-reqmerge/specifier"

// Manifest maps lowercased package names to their constraint sets.
// A nil set means the package is unconstrained. Manifests are built once
// by ParseManifest and never mutated afterwards.
type Manifest map[string]specifier.Set

// Status is the terminal state of a single package's resolution.
type Status string

// Per-package resolution outcomes. Conflict and Unresolved are normal
// data states, not errors: resolution of other packages continues.
const (
	// StatusResolved means a concrete version satisfying both manifests
	// was selected.
	StatusResolved Status = "Resolved"

	// StatusConflict means both manifests restrict the package and the
	// catalog had candidates, yet none satisfies the merged constraint.
	StatusConflict Status = "Conflict"

	// StatusUnresolved means no version could be selected for a reason
	// other than a declared incompatibility: the catalog had no versions,
	// or a single manifest's constraint matched nothing available.
	StatusUnresolved Status = "Unresolved"
)

// ResolutionRow is the outcome record for one package in the union of
// both manifests. Rows are immutable once created.
type ResolutionRow struct {
	// Package is the lowercased package name.
	Package string `json:"package"`

	// Status is the terminal state for this package.
	Status Status `json:"status"`

	// Interval is the textual form of the effective merged constraint,
	// "Any version" when neither manifest restricts the package, or
	// "<specA> vs <specB>" for conflicts.
	Interval string `json:"interval"`

	// Selected is the normalized selected version, or "" when none.
	Selected string `json:"selected,omitempty"`

	// Reason is a human-readable explanation of the outcome.
	Reason string `json:"reason"`
}

// MergeReport is the full result of resolving a manifest pair.
type MergeReport struct {
	// Rows holds one record per package, sorted ascending by name.
	Rows []ResolutionRow `json:"rows"`

	// AllResolved is true iff every row has StatusResolved.
	AllResolved bool `json:"all_resolved"`

	// Pins maps package names to selected versions. Populated only when
	// AllResolved is true and at least one row exists.
	Pins map[string]string `json:"pins,omitempty"`

	// Summary provides aggregate counts over the rows.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate statistics about a merge result.
type Summary struct {
	// Total is the number of packages considered.
	Total int `json:"total"`

	// Resolved counts rows with StatusResolved.
	Resolved int `json:"resolved"`

	// Conflicts counts rows with StatusConflict.
	Conflicts int `json:"conflicts"`

	// Unresolved counts rows with StatusUnresolved.
	Unresolved int `json:"unresolved"`
}
