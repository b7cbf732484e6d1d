// Package reqmerge resolves a consistent, installable set of package
// version pins across two independently declared dependency manifests.
//
// For every package named in either manifest it determines whether the two
// manifests' PEP 440 constraints are jointly satisfiable and, if so,
// selects one concrete version from a catalog of known versions, preferring
// the newest and degrading to the oldest. The result is a merged pin set
// usable by downstream installers plus a per-package diagnostic report.
//
// # Overview
//
// The package provides three main components:
//
//   - Parser: parses requirements text (and pyproject.toml descriptors)
//     into package-to-constraint mappings
//   - Catalog: answers which versions of a package exist; the default
//     implementation queries the PyPI JSON API
//   - Resolver: intersects both manifests' constraints per package and
//     selects versions, aggregating outcomes into a MergeReport
//
// # Quick Start
//
// The simplest way to merge two manifests:
//
//	// Zero-config: looks up versions on PyPI
//	report, err := reqmerge.Merge(ctx, contentA, contentB)
//
//	// From files (.txt requirements or .toml project descriptors)
//	report, err := reqmerge.MergeFiles(ctx, "reqs-a.txt", "pyproject.toml")
//
//	// Deterministic, offline
//	report, err := reqmerge.Merge(ctx, contentA, contentB,
//	    reqmerge.WithCatalog(reqmerge.StaticCatalog{
//	        "requests": {"2.4.0", "2.6.0", "2.9.0", "3.0.0"},
//	    }))
//
// When report.AllResolved is true, report.MergedManifest() returns the
// merged requirements text; otherwise it returns "" and the per-package
// rows explain what conflicted or could not be resolved.
//
// # Error Handling
//
// Only manifest syntax errors abort a merge, with a *SyntaxError naming
// the package and the invalid clause. Catalog failures and per-package
// infeasibility are data in the report, never errors.
//
// # Thread Safety
//
// All public types in this package are safe for concurrent use.
package reqmerge

import (
	"context"
	"fmt"
)

// Merge resolves two manifests given as requirements text.
//
// This is the recommended entry point. Both inputs are parsed before any
// catalog traffic; a syntax error in either aborts the merge.
func Merge(ctx context.Context, contentA, contentB string, opts ...Option) (*MergeReport, error) {
	manifestA, err := ParseManifest(contentA)
	if err != nil {
		return nil, fmt.Errorf("parse first manifest: %w", err)
	}
	manifestB, err := ParseManifest(contentB)
	if err != nil {
		return nil, fmt.Errorf("parse second manifest: %w", err)
	}

	resolver, err := NewResolver(opts...)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(ctx, manifestA, manifestB)
}

// MergeFiles resolves two manifest files. Files ending in .toml are
// flattened from pyproject project descriptors into requirements text
// before parsing.
func MergeFiles(ctx context.Context, pathA, pathB string, opts ...Option) (*MergeReport, error) {
	manifestA, err := ParseManifestFile(pathA)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pathA, err)
	}
	manifestB, err := ParseManifestFile(pathB)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pathB, err)
	}

	resolver, err := NewResolver(opts...)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(ctx, manifestA, manifestB)
}
