// Package lockfile writes an renv-compatible lock file from a solved
// dependency graph.
package lockfile

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/r-lib/rig/internal/registry"
	"github.com/r-lib/rig/internal/rigerr"
	"github.com/r-lib/rig/internal/solver"
)

// LockRepository names one repository entry recorded in the lock
// file's "R.Repositories" list.
type LockRepository struct {
	Name string `json:"Name"`
	URL  string `json:"URL"`
}

type lockR struct {
	Version      string           `json:"Version"`
	Repositories []LockRepository `json:"Repositories"`
}

type lockPackage struct {
	Package    string   `json:"Package"`
	Version    string   `json:"Version"`
	Source     string   `json:"Source"`
	Repository string   `json:"Repository,omitempty"`
	Depends    []string `json:"Depends,omitempty"`
}

type lockfile struct {
	R        lockR                  `json:"R"`
	Packages map[string]lockPackage `json:"Packages"`
}

// WriteLockfile serializes sol into the renv-compatible JSON shape,
// skipping the virtual "R" and "_project" packages and any
// registry.IsBase package. Depends lists only direct non-base
// dependency names, without version constraints.
func WriteLockfile(w io.Writer, sol *solver.Solution, reg *registry.Registry, rVersion string, repos []LockRepository) error {
	out := lockfile{
		R:        lockR{Version: rVersion, Repositories: repos},
		Packages: make(map[string]lockPackage, len(sol.Versions)),
	}

	names := make([]string, 0, len(sol.Versions))
	for name := range sol.Versions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "R" || name == "_project" || registry.IsBase(name) {
			continue
		}
		version := sol.Versions[name]

		var depends []string
		if pkg, ok := reg.Lookup(name, version); ok {
			depends = directDependencyNames(pkg)
		}

		out.Packages[name] = lockPackage{
			Package:    name,
			Version:    version.String(),
			Source:     "Repository",
			Repository: primaryRepositoryName(repos),
			Depends:    depends,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return rigerr.Wrap(rigerr.ParseError, "encoding lockfile", err)
	}
	return nil
}

func directDependencyNames(pkg registry.Package) []string {
	seen := make(map[string]bool)
	var names []string
	for _, spec := range pkg.Deps {
		if !spec.HasType("Depends") && !spec.HasType("Imports") && !spec.HasType("LinkingTo") {
			continue
		}
		if registry.IsBase(spec.Name) || spec.Name == "R" {
			continue
		}
		if seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		names = append(names, spec.Name)
	}
	sort.Strings(names)
	return names
}

func primaryRepositoryName(repos []LockRepository) string {
	if len(repos) == 0 {
		return ""
	}
	return repos[0].Name
}
