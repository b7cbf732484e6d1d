// Package specifier implements PEP 440 version specifiers: single comparison
// clauses and AND-ed clause sets, with membership testing and intersection.
//
// Reference: https://peps.python.org/pep-0440/#version-specifiers
//
// A Set is the Go counterpart of packaging's SpecifierSet: an ordered list of
// clauses joined by commas, all of which a candidate version must satisfy.
// The empty Set is the unconstrained set and matches every version.
package specifier

import (
	"strings"

	"github.com/reqmerge/go-reqmerge/version"
)

// Op is a version comparison operator.
type Op string

// Recognized comparison operators. Any other operator text fails parsing.
const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpCompatible   Op = "~="
)

// opTable lists operators in match order: two-character operators must be
// tried before their one-character prefixes.
var opTable = []Op{OpEqual, OpNotEqual, OpLessEqual, OpGreaterEqual, OpCompatible, OpLess, OpGreater}

// ParseError represents an invalid specifier clause.
type ParseError struct {
	Clause  string
	Message string
}

func (e *ParseError) Error() string {
	return "invalid specifier " + e.Clause + ": " + e.Message
}

// Constraint is a single comparison clause: an operator paired with a version.
// Wildcard clauses (==1.2.* and !=1.2.*) match on the release prefix.
type Constraint struct {
	Op       Op
	Version  version.Version
	Wildcard bool
}

// ParseConstraint parses a single clause such as ">=1.0" or "==2.1.*".
func ParseConstraint(clause string) (Constraint, error) {
	trimmed := strings.TrimSpace(clause)
	if trimmed == "" {
		return Constraint{}, &ParseError{Clause: clause, Message: "empty clause"}
	}

	var op Op
	for _, candidate := range opTable {
		if strings.HasPrefix(trimmed, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Constraint{}, &ParseError{Clause: trimmed, Message: "unrecognized operator"}
	}

	versionText := strings.TrimSpace(strings.TrimPrefix(trimmed, string(op)))
	if versionText == "" {
		return Constraint{}, &ParseError{Clause: trimmed, Message: "missing version"}
	}

	wildcard := false
	if strings.HasSuffix(versionText, ".*") {
		if op != OpEqual && op != OpNotEqual {
			return Constraint{}, &ParseError{Clause: trimmed, Message: "wildcard requires == or !="}
		}
		wildcard = true
		versionText = strings.TrimSuffix(versionText, ".*")
	}

	v, err := version.Parse(versionText)
	if err != nil {
		return Constraint{}, &ParseError{Clause: trimmed, Message: err.Error()}
	}

	if wildcard && (v.IsPrerelease() || v.IsPostrelease() || v.Local() != "") {
		return Constraint{}, &ParseError{Clause: trimmed, Message: "wildcard requires a plain release version"}
	}
	if op == OpCompatible && len(v.Release()) < 2 {
		return Constraint{}, &ParseError{Clause: trimmed, Message: "~= requires at least two release segments"}
	}

	return Constraint{Op: op, Version: v, Wildcard: wildcard}, nil
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v version.Version) bool {
	switch c.Op {
	case OpEqual:
		if c.Wildcard {
			return releasePrefixMatch(v, c.Version, len(c.Version.Release()))
		}
		return version.Compare(v, c.Version) == 0
	case OpNotEqual:
		if c.Wildcard {
			return !releasePrefixMatch(v, c.Version, len(c.Version.Release()))
		}
		return version.Compare(v, c.Version) != 0
	case OpLess:
		return version.Compare(v, c.Version) < 0
	case OpLessEqual:
		return version.Compare(v, c.Version) <= 0
	case OpGreater:
		return version.Compare(v, c.Version) > 0
	case OpGreaterEqual:
		return version.Compare(v, c.Version) >= 0
	case OpCompatible:
		// ~= X.Y.Z means >= X.Y.Z combined with == X.Y.*
		return version.Compare(v, c.Version) >= 0 &&
			releasePrefixMatch(v, c.Version, len(c.Version.Release())-1)
	default:
		return false
	}
}

// String renders the clause in its normalized form.
func (c Constraint) String() string {
	if c.Wildcard {
		return string(c.Op) + c.Version.String() + ".*"
	}
	return string(c.Op) + c.Version.String()
}

// releasePrefixMatch reports whether v agrees with spec on the epoch and the
// first n release segments (zero-padded on either side).
func releasePrefixMatch(v, spec version.Version, n int) bool {
	if v.Epoch() != spec.Epoch() {
		return false
	}
	vRel, sRel := v.Release(), spec.Release()
	for i := 0; i < n; i++ {
		var a, b int
		if i < len(vRel) {
			a = vRel[i]
		}
		if i < len(sRel) {
			b = sRel[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// Set is an ordered conjunction of constraints. A nil or empty Set is
// unconstrained and matches every version.
type Set []Constraint

// Parse parses a comma-separated specifier set such as ">=1.0, <2.0".
// Empty or all-whitespace input yields the unconstrained set.
func Parse(text string) (Set, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var set Set
	for _, clause := range strings.Split(trimmed, ",") {
		c, err := ParseConstraint(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, c)
	}
	return set, nil
}

// MustParse parses a specifier set and panics on failure.
// Intended for tests and package-level constants.
func MustParse(text string) Set {
	set, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return set
}

// Check reports whether v satisfies every constraint in the set.
func (s Set) Check(v version.Version) bool {
	for _, c := range s {
		if !c.Check(v) {
			return false
		}
	}
	return true
}

// IsUnconstrained reports whether the set matches every version.
func (s Set) IsUnconstrained() bool { return len(s) == 0 }

// String renders the set as comma-joined clauses, or "" when unconstrained.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Intersect returns the conjunction of two sets: the union of their clauses.
// The result is always structurally constructible; whether any version
// satisfies it is a separate question answered by testing candidates.
func Intersect(a, b Set) Set {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(Set, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return merged
}
