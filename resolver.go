package reqmerge

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/reqmerge/go-reqmerge/specifier"
	"github.com/reqmerge/go-reqmerge/version"
)

const defaultMaxConcurrency = 5

// Reason strings attached to resolution rows. Exposed so callers can match
// on outcomes without parsing free text.
const (
	ReasonNoVersions   = "No versions available"
	ReasonNoCompatible = "No compatible version found in available versions"
	ReasonIncompatible = "Incompatible version constraints"
)

// intervalAnyVersion is the effective-constraint text when neither
// manifest restricts a package.
const intervalAnyVersion = "Any version"

// Resolver reconciles two flat manifests package by package against a
// version catalog.
//
// Resolution proceeds per package, independently:
//  1. Intersect the two constraint sets (the union of their clauses;
//     a missing set defaults to unconstrained).
//  2. Query the catalog for the package's known versions.
//  3. Select the newest version satisfying the merged set, falling back
//     to the oldest, per the two-pass selection policy.
//
// Packages are resolved concurrently (bounded worker pool) since no
// package's outcome depends on another's. Catalog lookup failures become
// empty version sets for that package, never resolution failures.
type Resolver struct {
	catalog        Catalog
	maxConcurrency int
	logger         *slog.Logger
}

// NewResolver creates a resolver from the given options. When no catalog
// is configured, versions are fetched from the PyPI JSON API.
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.maxConcurrency
	if concurrency == 0 {
		concurrency = defaultMaxConcurrency
	}

	return &Resolver{
		catalog:        cfg.catalogFromConfig(),
		maxConcurrency: concurrency,
		logger:         cfg.log(),
	}, nil
}

// Resolve resolves every package named in either manifest and aggregates
// the per-package outcomes into a MergeReport.
//
// The report's rows are sorted ascending by package name. The method is
// safe for concurrent use and respects context cancellation; per-package
// Conflict and Unresolved outcomes are data in the report, not errors.
func (r *Resolver) Resolve(ctx context.Context, manifestA, manifestB Manifest) (*MergeReport, error) {
	names := unionNames(manifestA, manifestB)

	rows := make([]ResolutionRow, 0, len(names))
	var mu sync.Mutex

	tasks := make(chan string)
	var wg sync.WaitGroup

	workers := min(r.maxConcurrency, len(names))
	for i, n := 0, max(workers, 1); i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range tasks {
				row := r.resolvePackage(ctx, name, manifestA[name], manifestB[name])
				mu.Lock()
				rows = append(rows, row)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, name := range names {
		select {
		case tasks <- name:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b ResolutionRow) int {
		return cmp.Compare(a.Package, b.Package)
	})

	return buildReport(rows), nil
}

// resolvePackage produces the resolution row for a single package.
func (r *Resolver) resolvePackage(ctx context.Context, name string, specA, specB specifier.Set) ResolutionRow {
	merged := specifier.Intersect(specA, specB)

	interval := merged.String()
	if merged.IsUnconstrained() {
		interval = intervalAnyVersion
	}

	available := r.lookup(ctx, name)
	selected, reason, ok := selectVersion(merged, available)
	if ok {
		r.logger.Debug("package resolved", "package", name, "version", selected.String())
		return ResolutionRow{
			Package:  name,
			Status:   StatusResolved,
			Interval: interval,
			Selected: selected.String(),
			Reason:   reason,
		}
	}

	// A failed selection is a Conflict only when the incompatibility is
	// between the two declarations: both sets restrictive and the catalog
	// offered candidates, yet none satisfied the merged clauses. A missing
	// or unhelpful catalog answer is Unresolved instead.
	status := StatusUnresolved
	if len(available) > 0 && !specA.IsUnconstrained() && !specB.IsUnconstrained() {
		status = StatusConflict
		interval = fmt.Sprintf("%s vs %s", specA, specB)
		reason = ReasonIncompatible
	}

	r.logger.Debug("package not resolved", "package", name, "status", status, "reason", reason)
	return ResolutionRow{
		Package:  name,
		Status:   status,
		Interval: interval,
		Reason:   reason,
	}
}

// lookup queries the catalog, converting any lookup error into an empty
// version set. Catalog unavailability is a per-package data condition,
// not a resolution failure.
func (r *Resolver) lookup(ctx context.Context, name string) []version.Version {
	versions, err := r.catalog.Versions(ctx, name)
	if err != nil {
		r.logger.Debug("catalog lookup failed", "package", name, "error", err)
		return nil
	}
	return versions
}

// selectVersion implements the two-pass selection policy: prefer the
// newest version satisfying the set, then degrade to the oldest rather
// than failing outright. Deterministic for a given set and catalog answer.
func selectVersion(set specifier.Set, available []version.Version) (version.Version, string, bool) {
	if len(available) == 0 {
		return version.Version{}, ReasonNoVersions, false
	}

	// Unconstrained sets always take the newest version; a single max scan
	// avoids cloning and sorting the candidate list.
	if set.IsUnconstrained() {
		best := available[0]
		for _, v := range available[1:] {
			best = version.Max(best, v)
		}
		return best, "Selected largest version: " + best.String(), true
	}

	sorted := slices.Clone(available)
	version.Sort(sorted)

	for i := len(sorted) - 1; i >= 0; i-- {
		if set.Check(sorted[i]) {
			return sorted[i], "Selected largest version: " + sorted[i].String(), true
		}
	}

	for _, v := range sorted {
		if set.Check(v) {
			return v, "No larger version found; selected smallest version: " + v.String(), true
		}
	}

	return version.Version{}, ReasonNoCompatible, false
}

// buildReport aggregates sorted rows into a MergeReport, computing the
// summary, the all-resolved flag, and the merged pin set.
func buildReport(rows []ResolutionRow) *MergeReport {
	report := &MergeReport{
		Rows:        rows,
		AllResolved: true,
	}
	report.Summary.Total = len(rows)

	for _, row := range rows {
		switch row.Status {
		case StatusResolved:
			report.Summary.Resolved++
		case StatusConflict:
			report.Summary.Conflicts++
			report.AllResolved = false
		case StatusUnresolved:
			report.Summary.Unresolved++
			report.AllResolved = false
		}
	}

	if report.AllResolved && len(rows) > 0 {
		report.Pins = make(map[string]string, len(rows))
		for _, row := range rows {
			report.Pins[row.Package] = row.Selected
		}
	}

	return report
}

// unionNames returns the sorted union of both manifests' package names.
func unionNames(a, b Manifest) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	names := make([]string, 0, len(a)+len(b))
	for name := range a {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	for name := range b {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
