package solver

import (
	"sort"

	"github.com/r-lib/rig/internal/rversion"
)

// Solution maps each resolved package name to the version the solver
// selected.
type Solution struct {
	Versions map[string]rversion.Version
}

// Get returns the resolved version of name, if it was part of the
// solution.
func (s *Solution) Get(name string) (rversion.Version, bool) {
	v, ok := s.Versions[name]
	return v, ok
}

// Solve searches source for one version per package reachable from
// root, consistent with every transitive constraint. Whenever multiple
// versions satisfy all active constraints the greatest is chosen.
// Cycles are handled naturally: decisions are keyed by package name,
// so a cyclic edge back to an already-decided package only checks that
// the existing decision still satisfies the tightened range.
func Solve(source Source, root map[string]rversion.Range) (*Solution, error) {
	ranges := make(map[string]rversion.Range, len(root))
	for name, rng := range root {
		ranges[name] = rng
	}

	decided := make(map[string]rversion.Version)

	result, chain := search(source, ranges, decided)
	if chain != nil {
		return nil, &UnsatisfiableError{Chain: chain}
	}
	return &Solution{Versions: result}, nil
}

// search is the recursive conflict-driven step: pick the most
// constrained undecided package, try its candidates from greatest to
// least, recursing into the rest of the problem after each tentative
// decision and backtracking (narrowing the candidate range below the
// failed version) whenever the recursive call or the decision itself
// conflicts.
func search(source Source, ranges map[string]rversion.Range, decided map[string]rversion.Version) (map[string]rversion.Version, []Incompatibility) {
	pkg, rng, ok := pickNext(source, ranges, decided)
	if !ok {
		if conflict, has := firstEmptyDecidedRange(ranges, decided); has {
			return nil, []Incompatibility{{
				Terms:  []Term{{Package: conflict, Range: ranges[conflict]}},
				Reason: "accumulated constraints exclude the already-decided version",
			}}
		}
		return cloneVersions(decided), nil
	}

	tried := rng
	var chain []Incompatibility
	for {
		version, found := source.ChooseVersion(pkg, tried)
		if !found {
			return nil, append(chain, Incompatibility{
				Terms:  []Term{{Package: pkg, Range: rng}},
				Reason: "no candidate version in range",
			})
		}

		newDecided := cloneVersions(decided)
		newDecided[pkg] = version

		newRanges, conflictPkg, err := applyDependencies(source, pkg, version, ranges, newDecided)
		if err != nil {
			return nil, []Incompatibility{{
				Terms:  []Term{{Package: pkg, Range: rng}},
				Reason: err.Error(),
			}}
		}

		if conflictPkg == "" {
			solution, downstream := search(source, newRanges, newDecided)
			if downstream == nil {
				return solution, nil
			}
			// Downstream failed: keep its incompatibilities and retry
			// with the next lower candidate for pkg.
			chain = append(chain, downstream...)
		} else {
			chain = append(chain, Incompatibility{
				Terms: []Term{
					{Package: pkg, Range: rversion.FromConstraint(rversion.VersionConstraint{Op: rversion.OpEqual, Version: version})},
					{Package: conflictPkg, Range: newRanges[conflictPkg]},
				},
				Reason: "dependency range conflicts with the accumulated constraints",
			})
		}

		excludeFrom := rversion.FromConstraint(rversion.VersionConstraint{Op: rversion.OpLessStrict, Version: version})
		tried = tried.Intersect(excludeFrom)
		if tried.IsEmpty() {
			return nil, append(chain, Incompatibility{
				Terms:  []Term{{Package: pkg, Range: rng}},
				Reason: "every candidate version leads to a conflict",
			})
		}
	}
}

// applyDependencies decides pkg@version's dependency ranges into
// ranges, intersecting with any existing range for each dependency. It
// returns the name of the first package whose range collapses to
// empty (undecided) or no longer contains its existing decision
// (already decided), or "" if nothing conflicts.
func applyDependencies(source Source, pkg string, version rversion.Version, ranges map[string]rversion.Range, decided map[string]rversion.Version) (map[string]rversion.Range, string, error) {
	deps, err := source.GetDependencies(pkg, version)
	if err != nil {
		return nil, "", err
	}

	newRanges := make(map[string]rversion.Range, len(ranges)+len(deps))
	for name, rng := range ranges {
		newRanges[name] = rng
	}

	conflictPkg := ""
	for name, depRange := range deps {
		current, ok := newRanges[name]
		if !ok {
			current = rversion.Any()
		}
		merged := current.Intersect(depRange)
		newRanges[name] = merged

		if decidedVersion, isDecided := decided[name]; isDecided {
			if !merged.Contains(decidedVersion) && conflictPkg == "" {
				conflictPkg = name
			}
			continue
		}
		if merged.IsEmpty() && conflictPkg == "" {
			conflictPkg = name
		}
	}

	return newRanges, conflictPkg, nil
}

// firstEmptyDecidedRange reports a decided package whose accumulated
// range no longer contains its own decision (can only happen if the
// caller skipped a conflict check upstream; kept as a defensive final
// pass before declaring success).
func firstEmptyDecidedRange(ranges map[string]rversion.Range, decided map[string]rversion.Version) (string, bool) {
	names := make([]string, 0, len(decided))
	for name := range decided {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rng, ok := ranges[name]
		if ok && !rng.Contains(decided[name]) {
			return name, true
		}
	}
	return "", false
}

// pickNext returns the undecided package with the fewest admissible
// candidates (fail-fast ordering), or false if every package with a
// range has already been decided.
func pickNext(source Source, ranges map[string]rversion.Range, decided map[string]rversion.Version) (string, rversion.Range, bool) {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		if _, ok := decided[name]; ok {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", rversion.Range{}, false
	}
	sort.Strings(names)

	bestName := names[0]
	bestPriority := source.Prioritize(bestName, ranges[bestName])
	for _, name := range names[1:] {
		p := source.Prioritize(name, ranges[name])
		if p < bestPriority {
			bestName, bestPriority = name, p
		}
	}

	return bestName, ranges[bestName], true
}

func cloneVersions(m map[string]rversion.Version) map[string]rversion.Version {
	out := make(map[string]rversion.Version, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
