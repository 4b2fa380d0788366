// Package repos resolves which repository entries apply to a target
// platform, and decides which repositories are enabled for a given
// whitelist/blacklist.
package repos

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/r-lib/rig/internal/rversion"
)

// TargetEnvironment describes the machine repository entries are
// matched against. Distro and Release are only meaningful on Linux.
type TargetEnvironment struct {
	OS       string // "macos", "linux", "windows"
	Distro   string
	Release  string
	CPUArch  string // "x86_64", "aarch64", "arm64", "x86"
	RVersion semver.Version
}

// PlatformString renders "os[-distro[-release]]", the string platform
// globs are matched against.
func (t TargetEnvironment) PlatformString() string {
	s := t.OS
	if t.Distro != "" {
		s += "-" + t.Distro
		if t.Release != "" {
			s += "-" + t.Release
		}
	}
	return s
}

// RVersionAsRVersion converts the target's semver-typed R version back
// into an rversion.Version for comparison against rversions constraint
// lists, which are parsed with the CRAN package-version algebra rather
// than semver.
func (t TargetEnvironment) RVersionAsRVersion() (rversion.Version, error) {
	v, err := rversion.Parse(t.RVersion.String())
	if err != nil {
		return rversion.Version{}, fmt.Errorf("repos: converting target R version %s: %w", t.RVersion, err)
	}
	return v, nil
}
