package solver

import (
	"fmt"

	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/registry"
	"github.com/r-lib/rig/internal/rversion"
)

// loadBearingTypes are the DCF fields that induce a hard edge the
// solver must satisfy; Suggests and Enhances are informational only
// unless FollowSuggests is set.
var loadBearingTypes = []string{"Depends", "Imports", "LinkingTo"}

// RegistrySource adapts a registry.Registry to the solver's Source
// interface. Base packages (registry.IsBase) are treated as always
// present: their edges are accepted without inducing a lookup.
type RegistrySource struct {
	Registry *registry.Registry

	// FollowSuggests makes Suggests/Enhances edges load-bearing too,
	// for commands that want to pull in optional dependencies.
	FollowSuggests bool
}

func (s *RegistrySource) ChooseVersion(pkg string, rng rversion.Range) (rversion.Version, bool) {
	if registry.IsBase(pkg) {
		return rversion.Version{}, false
	}
	p, ok := s.Registry.Latest(pkg, rng)
	if !ok {
		return rversion.Version{}, false
	}
	return p.Version, true
}

func (s *RegistrySource) GetDependencies(pkg string, v rversion.Version) (map[string]rversion.Range, error) {
	if registry.IsBase(pkg) {
		return nil, nil
	}

	p, ok := s.Registry.Lookup(pkg, v)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoCandidate, pkg, v)
	}

	types := loadBearingTypes
	if s.FollowSuggests {
		types = append(append([]string{}, loadBearingTypes...), "Suggests", "Enhances")
	}

	deps := make(map[string]rversion.Range)
	for _, spec := range p.Deps {
		if registry.IsBase(spec.Name) {
			continue
		}
		if !hasAnyType(spec, types) {
			continue
		}
		rng := spec.Range()
		if existing, ok := deps[spec.Name]; ok {
			rng = existing.Intersect(rng)
		}
		deps[spec.Name] = rng
	}

	return deps, nil
}

func hasAnyType(spec dcf.DepVersionSpec, types []string) bool {
	for _, t := range types {
		if spec.HasType(t) {
			return true
		}
	}
	return false
}

func (s *RegistrySource) Prioritize(pkg string, rng rversion.Range) int {
	count := 0
	for _, p := range s.Registry.Versions(pkg) {
		if rng.Contains(p.Version) {
			count++
		}
	}
	return count
}
