package solver

import (
	"errors"
	"fmt"

	"github.com/r-lib/rig/internal/rversion"
)

// ErrNoCandidate is returned by Source.GetDependencies implementations
// for a (package, version) pair the source has never heard of. The
// solver treats it as "no candidate in range", not a fatal error.
var ErrNoCandidate = errors.New("solver: no candidate version for package")

// notMine is the Prioritize sentinel a Source returns for a package
// name it doesn't own, so CombinedSource's min-of-sources never picks
// it over a source that actually recognizes the package.
const notMine = 1 << 30

// Source is the registry abstraction the solver searches over.
type Source interface {
	// ChooseVersion returns the greatest version of pkg contained in
	// rng, or false if none exists. The registry may be incomplete:
	// returning false is a normal outcome, not an error.
	ChooseVersion(pkg string, rng rversion.Range) (rversion.Version, bool)

	// GetDependencies returns the range each dependency of
	// (pkg, version) must satisfy, restricted to whichever DCF fields
	// the source considers load-bearing (Depends/Imports/LinkingTo by
	// convention; Suggests/Enhances are not followed unless a source
	// opts in).
	GetDependencies(pkg string, v rversion.Version) (map[string]rversion.Range, error)

	// Prioritize returns the decision order for pkg under rng. The
	// solver decides the package with the lowest value first, so
	// implementations should return something like "number of
	// admissible candidates" to fail fast on the most constrained
	// package.
	Prioritize(pkg string, rng rversion.Range) int
}

// CombinedSource tries each source in order, returning the first
// successful answer. Used to graft virtual packages (R, _project) onto
// a RegistrySource without RegistrySource needing to know about them.
type CombinedSource []Source

func (c CombinedSource) ChooseVersion(pkg string, rng rversion.Range) (rversion.Version, bool) {
	for _, s := range c {
		if v, ok := s.ChooseVersion(pkg, rng); ok {
			return v, true
		}
	}
	return rversion.Version{}, false
}

func (c CombinedSource) GetDependencies(pkg string, v rversion.Version) (map[string]rversion.Range, error) {
	var lastErr error
	for _, s := range c {
		deps, err := s.GetDependencies(pkg, v)
		if err == nil {
			return deps, nil
		}
		if errors.Is(err, ErrNoCandidate) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s %s", ErrNoCandidate, pkg, v)
	}
	return nil, lastErr
}

func (c CombinedSource) Prioritize(pkg string, rng rversion.Range) int {
	best := -1
	for _, s := range c {
		p := s.Prioritize(pkg, rng)
		if best == -1 || p < best {
			best = p
		}
	}
	return best
}
