package reqmerge

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/reqmerge/go-reqmerge/version"
)

// MergedManifest renders the merged pin set as requirements text, one
// "name==version" line per package, sorted ascending by name.
//
// Returns "" when the resolution did not fully succeed: the merged output
// is deliberately withheld unless every package resolved.
func (r *MergeReport) MergedManifest() string {
	if !r.AllResolved || len(r.Pins) == 0 {
		return ""
	}

	var b strings.Builder
	for _, name := range sortedKeys(r.Pins) {
		b.WriteString(name)
		b.WriteString("==")
		b.WriteString(r.Pins[name])
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTable renders the per-package diagnostic table. Unselected
// versions render as "-".
func (r *MergeReport) FormatTable() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "Package\tStatus\tCompatible Interval\tSelected Version\tReason")
	for _, row := range r.Rows {
		selected := row.Selected
		if selected == "" {
			selected = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.Package, row.Status, row.Interval, selected, row.Reason)
	}

	w.Flush()
	return buf.String()
}

// PinChange represents an added or removed pin in a report diff.
type PinChange struct {
	// Package is the package name.
	Package string `json:"package"`

	// Version is the pinned version.
	Version string `json:"version"`
}

// PinUpgrade represents a version change for an existing pin.
type PinUpgrade struct {
	// Package is the package name.
	Package string `json:"package"`

	// OldVersion is the pin in the old report.
	OldVersion string `json:"old_version"`

	// NewVersion is the pin in the new report.
	NewVersion string `json:"new_version"`
}

// PinDiff describes the differences between two merge results' pin sets.
//
// Useful for reviewing a re-merge after manifest changes before applying
// it, or for CI checks on dependency bumps:
//
//	oldReport, _ := reqmerge.Merge(ctx, oldA, oldB)
//	newReport, _ := reqmerge.Merge(ctx, newA, newB)
//	diff := reqmerge.DiffReports(oldReport, newReport)
type PinDiff struct {
	// Added contains pins present in new but not in old.
	Added []PinChange `json:"added,omitempty"`

	// Removed contains pins present in old but not in new.
	Removed []PinChange `json:"removed,omitempty"`

	// Upgraded contains pins where the new version is higher.
	Upgraded []PinUpgrade `json:"upgraded,omitempty"`

	// Downgraded contains pins where the new version is lower.
	Downgraded []PinUpgrade `json:"downgraded,omitempty"`
}

// IsEmpty returns true if the two pin sets are identical.
func (d *PinDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Upgraded) == 0 &&
		len(d.Downgraded) == 0
}

// DiffReports compares the pin sets of two merge results. Reports without
// pins (not fully resolved) contribute an empty set. Output slices are
// sorted by package name.
func DiffReports(oldReport, newReport *MergeReport) *PinDiff {
	diff := &PinDiff{}

	var oldPins, newPins map[string]string
	if oldReport != nil {
		oldPins = oldReport.Pins
	}
	if newReport != nil {
		newPins = newReport.Pins
	}

	for _, name := range sortedKeys(newPins) {
		newVer := newPins[name]
		oldVer, existed := oldPins[name]
		if !existed {
			diff.Added = append(diff.Added, PinChange{Package: name, Version: newVer})
			continue
		}
		switch comparePins(newVer, oldVer) {
		case 1:
			diff.Upgraded = append(diff.Upgraded, PinUpgrade{Package: name, OldVersion: oldVer, NewVersion: newVer})
		case -1:
			diff.Downgraded = append(diff.Downgraded, PinUpgrade{Package: name, OldVersion: oldVer, NewVersion: newVer})
		}
	}

	for _, name := range sortedKeys(oldPins) {
		if _, present := newPins[name]; !present {
			diff.Removed = append(diff.Removed, PinChange{Package: name, Version: oldPins[name]})
		}
	}

	return diff
}

// comparePins compares two pinned version strings, falling back to a
// lexicographic comparison for strings outside the version grammar.
func comparePins(a, b string) int {
	va, errA := version.Parse(a)
	vb, errB := version.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return version.Compare(va, vb)
}

// sortedKeys returns the map's keys sorted ascending.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
