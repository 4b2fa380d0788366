package registry

import (
	"fmt"
	"sort"

	"github.com/r-lib/rig/internal/rversion"
)

// BasePackages are the R packages that ship with every installation and
// are never resolved against a repository; edges to them are accepted
// but induce no registry lookup.
var BasePackages = map[string]struct{}{
	"base": {}, "compiler": {}, "datasets": {}, "graphics": {},
	"grDevices": {}, "grid": {}, "methods": {}, "parallel": {},
	"splines": {}, "stats": {}, "stats4": {}, "tcltk": {},
	"tools": {}, "utils": {},
}

// IsBase reports whether name is one of the always-present base R
// packages.
func IsBase(name string) bool {
	_, ok := BasePackages[name]
	return ok
}

// Registry maps package names to their known versions, sorted
// descending so "choose latest candidate" is O(1). Built once per
// command invocation and discarded at exit.
type Registry struct {
	byName map[string][]Package
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string][]Package)}
}

// Insert adds pkg to the registry. A second insertion of the same
// (name, version) pair is a no-op: first wins.
func (r *Registry) Insert(pkg Package) {
	versions := r.byName[pkg.Name]
	for _, existing := range versions {
		if rversion.Equal(existing.Version, pkg.Version) {
			return
		}
	}

	versions = append(versions, pkg)
	sort.Slice(versions, func(i, j int) bool {
		return rversion.Less(versions[j].Version, versions[i].Version)
	})
	r.byName[pkg.Name] = versions
}

// Versions returns the known versions of name, sorted descending. The
// returned slice must not be mutated by the caller.
func (r *Registry) Versions(name string) []Package {
	return r.byName[name]
}

// Lookup returns the exact (name, version) record, if known.
func (r *Registry) Lookup(name string, v rversion.Version) (Package, bool) {
	for _, pkg := range r.byName[name] {
		if rversion.Equal(pkg.Version, v) {
			return pkg, true
		}
	}
	return Package{}, false
}

// Names returns every package name known to the registry.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Latest returns the highest known version of name satisfying rng, if
// any exists.
func (r *Registry) Latest(name string, rng rversion.Range) (Package, bool) {
	for _, pkg := range r.byName[name] {
		if rng.Contains(pkg.Version) {
			return pkg, true
		}
	}
	return Package{}, false
}

// String renders a one-line summary, useful in solver diagnostics.
func (r *Registry) String() string {
	return fmt.Sprintf("registry(%d packages)", len(r.byName))
}
