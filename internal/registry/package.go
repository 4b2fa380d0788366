// Package registry holds the known universe of R packages discovered
// from CRAN-style metadata: one immutable Package record per
// (name, version), indexed for the solver's "choose latest candidate"
// and "look up dependencies" operations.
package registry

import (
	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/rversion"
)

// Package is an immutable snapshot of one (name, version) as recorded
// in a repository's metadata. Optional fields are zero-valued when the
// source record didn't carry them.
type Package struct {
	Name    string
	Version rversion.Version
	Deps    []dcf.DepVersionSpec

	DownloadURL string
	File        string
	Path        string
	License     string
	Platform    string
	Arch        string
	InternalsID string
	Filesize    int64

	Built *dcf.Built
}

// DepsOfType returns the subset of Deps that carry depType among their
// contributing fields.
func (p Package) DepsOfType(depType string) []dcf.DepVersionSpec {
	var out []dcf.DepVersionSpec
	for _, d := range p.Deps {
		if d.HasType(depType) {
			out = append(out, d)
		}
	}
	return out
}
