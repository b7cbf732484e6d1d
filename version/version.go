// Package version implements PEP 440 package version parsing and comparison.
//
// This is a Go port of the version model from PyPA's packaging library.
//
// Reference: https://peps.python.org/pep-0440/
//
// Version format: [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+LOCAL]
//   - N!: optional epoch (defaults to 0)
//   - N(.N)*: release segments
//   - {a|b|rc}N: optional pre-release marker
//   - .postN: optional post-release marker
//   - .devN: optional development-release marker
//   - +LOCAL: local version label, ignored for comparison purposes
//
// Parsing normalizes the alternate spellings PEP 440 permits (case
// differences, alpha/beta/c/pre/preview, rev/r, -/_ separators, a leading
// "v") into the canonical form above.
package version

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// versionPattern accepts the PEP 440 grammar including the normalization
// spellings. Local labels are captured but do not participate in ordering.
var versionPattern = regexp.MustCompile(`^v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<prel>alpha|beta|preview|pre|a|b|c|rc)[-_.]?(?P<pren>[0-9]+)?)?` +
	`(?:-(?P<postimpl>[0-9]+)|[-_.]?(?P<postl>post|rev|r)[-_.]?(?P<postn>[0-9]+)?)?` +
	`(?:[-_.]?(?P<devl>dev)[-_.]?(?P<devn>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

var groupIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, name := range versionPattern.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}()

// Version is an immutable, totally ordered PEP 440 version value.
// The zero value is not a valid version; construct with Parse or MustParse.
type Version struct {
	epoch   int
	release []int
	pre     string // "a", "b" or "rc"; empty if no pre-release marker
	preN    int
	post    int // -1 if absent
	dev     int // -1 if absent
	local   string
	norm    string
	raw     string
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + strconv.Quote(e.Version) + ": " + e.Message
}

// Parse parses a version string into a Version.
// Any string not matching the PEP 440 grammar returns a *ParseError;
// input is never silently coerced.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Version{}, &ParseError{Version: s, Message: "empty version string"}
	}

	match := versionPattern.FindStringSubmatch(strings.ToLower(trimmed))
	if match == nil {
		return Version{}, &ParseError{Version: s, Message: "does not match PEP 440 grammar"}
	}

	group := func(name string) string { return match[groupIndex[name]] }

	v := Version{post: -1, dev: -1, raw: trimmed}

	if epoch := group("epoch"); epoch != "" {
		v.epoch = mustAtoi(epoch)
	}

	for _, part := range strings.Split(group("release"), ".") {
		v.release = append(v.release, mustAtoi(part))
	}

	if prel := group("prel"); prel != "" {
		v.pre = normalizePreLetter(prel)
		if pren := group("pren"); pren != "" {
			v.preN = mustAtoi(pren)
		}
	}

	switch {
	case group("postimpl") != "":
		v.post = mustAtoi(group("postimpl"))
	case group("postl") != "":
		v.post = 0
		if postn := group("postn"); postn != "" {
			v.post = mustAtoi(postn)
		}
	}

	if group("devl") != "" {
		v.dev = 0
		if devn := group("devn"); devn != "" {
			v.dev = mustAtoi(devn)
		}
	}

	v.local = strings.NewReplacer("-", ".", "_", ".").Replace(group("local"))
	v.norm = canonical(v)
	return v, nil
}

// MustParse parses a version string and panics on failure.
// Intended for tests and package-level constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// normalizePreLetter maps the alternate pre-release spellings to their
// canonical forms: alpha -> a, beta -> b, c/pre/preview -> rc.
func normalizePreLetter(letter string) string {
	switch letter {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	default:
		return letter
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Unreachable: the pattern only captures digit runs.
		panic(err)
	}
	return n
}

// canonical renders the normalized PEP 440 form.
func canonical(v Version) string {
	var b strings.Builder
	if v.epoch != 0 {
		b.WriteString(strconv.Itoa(v.epoch))
		b.WriteByte('!')
	}
	for i, seg := range v.release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(seg))
	}
	if v.pre != "" {
		b.WriteString(v.pre)
		b.WriteString(strconv.Itoa(v.preN))
	}
	if v.post >= 0 {
		b.WriteString(".post")
		b.WriteString(strconv.Itoa(v.post))
	}
	if v.dev >= 0 {
		b.WriteString(".dev")
		b.WriteString(strconv.Itoa(v.dev))
	}
	if v.local != "" {
		b.WriteByte('+')
		b.WriteString(v.local)
	}
	return b.String()
}

// String returns the normalized form of the version.
func (v Version) String() string { return v.norm }

// Original returns the version string exactly as it was parsed.
func (v Version) Original() string { return v.raw }

// Epoch returns the version epoch (0 unless declared with N!).
func (v Version) Epoch() int { return v.epoch }

// Release returns a copy of the release segments.
func (v Version) Release() []int {
	return slices.Clone(v.release)
}

// IsPrerelease reports whether the version carries a pre-release or
// development-release marker. Installers typically exclude these unless
// explicitly requested.
func (v Version) IsPrerelease() bool { return v.pre != "" || v.dev >= 0 }

// IsPostrelease reports whether the version carries a post-release marker.
func (v Version) IsPostrelease() bool { return v.post >= 0 }

// Local returns the local version label, or "" if none.
func (v Version) Local() string { return v.local }

// Equal reports whether two versions are equal under PEP 440 ordering.
// Trailing zero release segments are insignificant: 1.0 equals 1.0.0.
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

// Compare compares two versions per PEP 440 ordering rules.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// Order precedence: epoch, then release segments (shorter release lists are
// zero-padded), then dev < pre (a < b < rc) < final < post. Local labels are
// ignored.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.epoch, b.epoch); c != 0 {
		return c
	}
	if c := compareRelease(a.release, b.release); c != 0 {
		return c
	}
	if c := comparePre(a, b); c != 0 {
		return c
	}
	if c := comparePost(a, b); c != 0 {
		return c
	}
	return compareDev(a, b)
}

// compareRelease compares release segment lists, zero-padding the shorter.
func compareRelease(a, b []int) int {
	for i, n := 0, max(len(a), len(b)); i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// preRank buckets a version for the pre-release comparison step:
// a bare dev release sorts before any pre-release, and a version without a
// pre-release marker sorts after all pre-releases of the same release.
func preRank(v Version) int {
	switch {
	case v.pre == "" && v.post < 0 && v.dev >= 0:
		return -1
	case v.pre == "":
		return 1
	default:
		return 0
	}
}

func comparePre(a, b Version) int {
	ra, rb := preRank(a), preRank(b)
	if c := cmp.Compare(ra, rb); c != 0 {
		return c
	}
	if ra != 0 {
		return 0
	}
	// Both carry pre-release markers: a < b < rc, then numerically.
	if c := strings.Compare(a.pre, b.pre); c != 0 {
		return c
	}
	return cmp.Compare(a.preN, b.preN)
}

func comparePost(a, b Version) int {
	// Absent post markers sort before present ones; -1 sentinels align
	// with numeric comparison since post numbers are non-negative.
	return cmp.Compare(a.post, b.post)
}

func compareDev(a, b Version) int {
	// Absent dev markers sort AFTER present ones.
	aDev, bDev := a.dev >= 0, b.dev >= 0
	if aDev != bDev {
		if aDev {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.dev, b.dev)
}

// Sort sorts versions in ascending order, in place.
func Sort(versions []Version) {
	slices.SortFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b Version) Version {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
