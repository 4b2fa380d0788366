// Package solver implements a PubGrub-style conflict-driven version
// solver over an rversion/registry-backed package universe: given a
// root set of constraints, it selects one version per required
// package consistent with every transitive constraint, always
// preferring the greatest admissible version.
package solver

import (
	"fmt"
	"strings"

	"github.com/r-lib/rig/internal/rversion"
)

// Term is a single constraint on one package: "Package must fall
// within Range".
type Term struct {
	Package string
	Range   rversion.Range
}

func (t Term) String() string {
	return fmt.Sprintf("%s ∈ %s", t.Package, t.Range)
}

// Incompatibility records a conjunction of terms that cannot all hold
// simultaneously, together with the reason the solver ruled it out.
type Incompatibility struct {
	Terms  []Term
	Reason string
}

func (i Incompatibility) String() string {
	parts := make([]string, len(i.Terms))
	for idx, t := range i.Terms {
		parts[idx] = t.String()
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, " and "), i.Reason)
}

// UnsatisfiableError is returned when no solution exists. Chain holds
// the incompatibilities the solver accumulated while ruling out every
// candidate, innermost first.
type UnsatisfiableError struct {
	Chain []Incompatibility
}

func (e *UnsatisfiableError) Error() string {
	lines := make([]string, len(e.Chain))
	for i, inc := range e.Chain {
		lines[i] = inc.String()
	}
	return fmt.Sprintf("no solution: %s", strings.Join(lines, "; "))
}
