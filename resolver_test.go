package reqmerge

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/reqmerge/go-reqmerge/specifier"
	"github.com/reqmerge/go-reqmerge/version"
)

// failingCatalog simulates an unavailable package index.
type failingCatalog struct{}

func (failingCatalog) Versions(context.Context, string) ([]version.Version, error) {
	return nil, errors.New("index unavailable")
}

func newTestResolver(t *testing.T, catalog Catalog) *Resolver {
	t.Helper()
	r, err := NewResolver(WithCatalog(catalog))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func mustManifest(t *testing.T, content string) Manifest {
	t.Helper()
	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest(%q): %v", content, err)
	}
	return m
}

func findRow(t *testing.T, report *MergeReport, pkg string) ResolutionRow {
	t.Helper()
	for _, row := range report.Rows {
		if row.Package == pkg {
			return row
		}
	}
	t.Fatalf("no row for package %q", pkg)
	return ResolutionRow{}
}

// TestResolve_OverlappingRanges is end-to-end scenario A: two overlapping
// ranges resolve to the newest version inside the intersection.
func TestResolve_OverlappingRanges(t *testing.T) {
	catalog := StaticCatalog{
		"requests": {"2.4.0", "2.6.0", "2.9.0", "3.0.0"},
	}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "requests>=2.0,<3.0"),
		mustManifest(t, "requests>=2.5"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "requests")
	if row.Status != StatusResolved {
		t.Fatalf("Status = %q, want Resolved (reason: %s)", row.Status, row.Reason)
	}
	if row.Selected != "2.9.0" {
		t.Errorf("Selected = %q, want 2.9.0", row.Selected)
	}
	if !report.AllResolved {
		t.Error("AllResolved = false, want true")
	}
	if report.Pins["requests"] != "2.9.0" {
		t.Errorf("Pins[requests] = %q, want 2.9.0", report.Pins["requests"])
	}
}

// TestResolve_Conflict is end-to-end scenario B: two exact pins on
// different versions cannot both hold.
func TestResolve_Conflict(t *testing.T) {
	catalog := StaticCatalog{
		"flask": {"1.0", "2.0", "2.1"},
	}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "flask==1.0"),
		mustManifest(t, "flask==2.0"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "flask")
	if row.Status != StatusConflict {
		t.Fatalf("Status = %q, want Conflict", row.Status)
	}
	if row.Reason != ReasonIncompatible {
		t.Errorf("Reason = %q, want %q", row.Reason, ReasonIncompatible)
	}
	if row.Interval != "==1.0 vs ==2.0" {
		t.Errorf("Interval = %q, want \"==1.0 vs ==2.0\"", row.Interval)
	}
	if row.Selected != "" {
		t.Errorf("Selected = %q, want none", row.Selected)
	}
	if report.AllResolved {
		t.Error("AllResolved = true, want false")
	}
	if report.Pins != nil {
		t.Error("Pins should be withheld when not all resolved")
	}
}

// TestResolve_Unconstrained is end-to-end scenario C: a package named in
// only one manifest with no restriction gets the newest catalog version.
func TestResolve_Unconstrained(t *testing.T) {
	catalog := StaticCatalog{
		"numpy": {"1.21.0", "1.26.4", "1.24.0"},
	}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "numpy"),
		mustManifest(t, ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "numpy")
	if row.Status != StatusResolved {
		t.Fatalf("Status = %q, want Resolved", row.Status)
	}
	if row.Interval != "Any version" {
		t.Errorf("Interval = %q, want \"Any version\"", row.Interval)
	}
	if row.Selected != "1.26.4" {
		t.Errorf("Selected = %q, want 1.26.4", row.Selected)
	}
}

// TestResolve_NoVersionsAvailable is end-to-end scenario D: an empty
// catalog answer yields Unresolved, not Conflict.
func TestResolve_NoVersionsAvailable(t *testing.T) {
	r := newTestResolver(t, StaticCatalog{})

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "obscurepkg>=1.0"),
		mustManifest(t, ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "obscurepkg")
	if row.Status != StatusUnresolved {
		t.Fatalf("Status = %q, want Unresolved", row.Status)
	}
	if row.Reason != ReasonNoVersions {
		t.Errorf("Reason = %q, want %q", row.Reason, ReasonNoVersions)
	}
	if report.AllResolved {
		t.Error("AllResolved = true, want false")
	}
}

// TestResolve_CatalogErrorBecomesEmpty verifies the documented contract:
// a failing catalog is an empty result, never a resolution error.
func TestResolve_CatalogErrorBecomesEmpty(t *testing.T) {
	r := newTestResolver(t, failingCatalog{})

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "requests>=2.0"),
		mustManifest(t, ""))
	if err != nil {
		t.Fatalf("Resolve should not fail on catalog errors: %v", err)
	}

	row := findRow(t, report, "requests")
	if row.Status != StatusUnresolved || row.Reason != ReasonNoVersions {
		t.Errorf("row = %+v, want Unresolved / %q", row, ReasonNoVersions)
	}
}

// TestResolve_SingleRestrictiveNoMatch: one manifest restricts, the
// catalog has candidates but none fits. Unresolved, not Conflict, since
// only one declaration is involved.
func TestResolve_SingleRestrictiveNoMatch(t *testing.T) {
	catalog := StaticCatalog{"oldlib": {"0.1", "0.2"}}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "oldlib>=1.0"),
		mustManifest(t, ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "oldlib")
	if row.Status != StatusUnresolved {
		t.Fatalf("Status = %q, want Unresolved", row.Status)
	}
	if row.Reason != ReasonNoCompatible {
		t.Errorf("Reason = %q, want %q", row.Reason, ReasonNoCompatible)
	}
}

// TestResolve_BothRestrictiveEmptyCatalog: infeasibility is judged against
// catalog candidates, so an empty catalog reports Unresolved even for
// disjoint pins.
func TestResolve_BothRestrictiveEmptyCatalog(t *testing.T) {
	r := newTestResolver(t, StaticCatalog{})

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "flask==1.0"),
		mustManifest(t, "flask==2.0"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "flask")
	if row.Status != StatusUnresolved || row.Reason != ReasonNoVersions {
		t.Errorf("row = %+v, want Unresolved / %q", row, ReasonNoVersions)
	}
}

// TestResolve_SingleManifestConstraintUnmodified: a package present in
// only one manifest resolves against exactly that manifest's constraint.
func TestResolve_SingleManifestConstraintUnmodified(t *testing.T) {
	catalog := StaticCatalog{"django": {"3.2", "4.2", "5.0"}}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "django>=4.0,<5.0"),
		mustManifest(t, ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	row := findRow(t, report, "django")
	if row.Interval != ">=4.0,<5.0" {
		t.Errorf("Interval = %q, want >=4.0,<5.0", row.Interval)
	}
	if row.Selected != "4.2" {
		t.Errorf("Selected = %q, want 4.2", row.Selected)
	}
}

// TestResolve_RowOrderAndSummary verifies rows sort by package name and
// the summary counts each terminal state.
func TestResolve_RowOrderAndSummary(t *testing.T) {
	catalog := StaticCatalog{
		"alpha": {"1.0", "2.0"},
		"beta":  {"1.0"},
		// gamma absent
	}
	r := newTestResolver(t, catalog)

	report, err := r.Resolve(context.Background(),
		mustManifest(t, "gamma>=1.0\nalpha>=1.0\nbeta==2.0"),
		mustManifest(t, "beta==1.0"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var got []string
	for _, row := range report.Rows {
		got = append(got, row.Package)
	}
	if !reflect.DeepEqual(got, []string{"alpha", "beta", "gamma"}) {
		t.Errorf("row order = %v, want [alpha beta gamma]", got)
	}

	want := Summary{Total: 3, Resolved: 1, Conflicts: 1, Unresolved: 1}
	if report.Summary != want {
		t.Errorf("Summary = %+v, want %+v", report.Summary, want)
	}
}

// TestResolve_Deterministic verifies repeated resolutions produce
// identical reports despite concurrent per-package processing.
func TestResolve_Deterministic(t *testing.T) {
	catalog := StaticCatalog{
		"a": {"1.0", "1.1", "1.2"},
		"b": {"2.0", "2.1"},
		"c": {"3.0"},
		"d": {"0.1", "0.2", "0.3"},
		"e": {"9.9"},
	}
	r := newTestResolver(t, catalog)

	manifestA := mustManifest(t, "a>=1.0\nb<2.1\nc\nd!=0.3\ne==9.9")
	manifestB := mustManifest(t, "a<1.2\nd>=0.2")

	first, err := r.Resolve(context.Background(), manifestA, manifestB)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.Resolve(context.Background(), manifestA, manifestB)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolution not deterministic:\nfirst: %+v\nagain: %+v", first, again)
		}
	}
}

// TestResolve_ContextCancelled verifies a cancelled context aborts the
// resolution with the context error.
func TestResolve_ContextCancelled(t *testing.T) {
	r := newTestResolver(t, StaticCatalog{"a": {"1.0"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Resolve(ctx, mustManifest(t, "a"), mustManifest(t, "")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// TestResolve_EmptyManifests: no packages means a vacuously successful
// report with no pins.
func TestResolve_EmptyManifests(t *testing.T) {
	r := newTestResolver(t, StaticCatalog{})

	report, err := r.Resolve(context.Background(), Manifest{}, Manifest{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(report.Rows) != 0 || !report.AllResolved || report.Pins != nil {
		t.Errorf("report = %+v, want empty rows, AllResolved, nil pins", report)
	}
}

// TestSelectVersion exercises the two-pass policy directly.
func TestSelectVersion(t *testing.T) {
	versionsOf := func(ss ...string) []version.Version {
		out := make([]version.Version, len(ss))
		for i, s := range ss {
			out[i] = version.MustParse(s)
		}
		return out
	}

	set := specifier.MustParse(">=2.5,<3.0")

	v, reason, ok := selectVersion(set, versionsOf("2.4.0", "2.6.0", "2.9.0", "3.0.0"))
	if !ok || v.String() != "2.9.0" {
		t.Errorf("selected %q (%v), want 2.9.0", v.String(), ok)
	}
	if reason != "Selected largest version: 2.9.0" {
		t.Errorf("reason = %q", reason)
	}

	_, reason, ok = selectVersion(set, nil)
	if ok || reason != ReasonNoVersions {
		t.Errorf("empty catalog: ok=%v reason=%q", ok, reason)
	}

	_, reason, ok = selectVersion(set, versionsOf("1.0", "2.0"))
	if ok || reason != ReasonNoCompatible {
		t.Errorf("no match: ok=%v reason=%q", ok, reason)
	}

	// Unconstrained sets take the newest version via the max-scan fast path.
	v, reason, ok = selectVersion(nil, versionsOf("1.26.4", "1.21.0", "1.24.0"))
	if !ok || v.String() != "1.26.4" {
		t.Errorf("unconstrained selected %q (%v), want 1.26.4", v.String(), ok)
	}
	if reason != "Selected largest version: 1.26.4" {
		t.Errorf("unconstrained reason = %q", reason)
	}
}
