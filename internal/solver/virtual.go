package solver

import "github.com/r-lib/rig/internal/rversion"

// VirtualRSource is a Source with a single synthetic package, "R",
// pinned to exactly one version: the target R version. It accepts or
// refuses R-version constraints directly without any registry lookup.
type VirtualRSource struct {
	Name    string
	Version rversion.Version
}

// NewRSource returns a virtual source exposing the target R version
// under the conventional package name "R".
func NewRSource(v rversion.Version) *VirtualRSource {
	return &VirtualRSource{Name: "R", Version: v}
}

func (s *VirtualRSource) ChooseVersion(pkg string, rng rversion.Range) (rversion.Version, bool) {
	if pkg != s.Name {
		return rversion.Version{}, false
	}
	if !rng.Contains(s.Version) {
		return rversion.Version{}, false
	}
	return s.Version, true
}

func (s *VirtualRSource) GetDependencies(pkg string, v rversion.Version) (map[string]rversion.Range, error) {
	if pkg != s.Name {
		return nil, ErrNoCandidate
	}
	return nil, nil
}

func (s *VirtualRSource) Prioritize(pkg string, rng rversion.Range) int {
	if pkg != s.Name {
		return notMine
	}
	if rng.Contains(s.Version) {
		return 1
	}
	return 0
}

// ProjectSource is a Source with a single synthetic package,
// "_project", standing for the root DESCRIPTION's own constraints. It
// has exactly one version (an arbitrary sentinel) whose dependencies
// are the caller-supplied root requirement ranges.
type ProjectSource struct {
	Name    string
	Version rversion.Version
	Deps    map[string]rversion.Range
}

// NewProjectSource builds the root pseudo-package carrying deps as its
// dependency set.
func NewProjectSource(deps map[string]rversion.Range) *ProjectSource {
	return &ProjectSource{Name: "_project", Version: rversion.MustParse("0"), Deps: deps}
}

func (s *ProjectSource) ChooseVersion(pkg string, rng rversion.Range) (rversion.Version, bool) {
	if pkg != s.Name {
		return rversion.Version{}, false
	}
	if !rng.Contains(s.Version) {
		return rversion.Version{}, false
	}
	return s.Version, true
}

func (s *ProjectSource) GetDependencies(pkg string, v rversion.Version) (map[string]rversion.Range, error) {
	if pkg != s.Name {
		return nil, ErrNoCandidate
	}
	return s.Deps, nil
}

func (s *ProjectSource) Prioritize(pkg string, rng rversion.Range) int {
	if pkg != s.Name {
		return notMine
	}
	return 0
}
