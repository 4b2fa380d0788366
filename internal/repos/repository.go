package repos

import (
	"fmt"
	"strings"

	"github.com/r-lib/rig/internal/rversion"
)

// RepoEntry is one candidate URL within a Repository, guarded by
// optional applicability predicates.
type RepoEntry struct {
	Name      string
	URL       string
	Platforms []string // shell-style globs, e.g. "linux-ubuntu-22.04"
	Archs     []string // literal match, e.g. "aarch64"
	RVersions []string // parsed as rversion.VersionConstraint
}

// Repository groups the entries offered under one name (CRAN,
// BioCsoft, PPM, ...), in first-applicable-wins order.
type Repository struct {
	Name        string
	Title       string
	Description string
	Enabled     bool
	Entries     []RepoEntry
}

// Applicable reports whether entry matches every predicate it
// declares for target. A predicate the entry doesn't declare is
// vacuously satisfied.
func Applicable(entry RepoEntry, target TargetEnvironment) (bool, error) {
	if len(entry.Platforms) > 0 {
		platform := target.PlatformString()
		matched := false
		for _, pattern := range entry.Platforms {
			if matchGlob(pattern, platform) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	if len(entry.Archs) > 0 {
		matched := false
		for _, arch := range entry.Archs {
			if arch == target.CPUArch {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	if len(entry.RVersions) > 0 {
		targetVersion, err := target.RVersionAsRVersion()
		if err != nil {
			return false, err
		}

		matched := false
		for _, raw := range entry.RVersions {
			constraint, err := rversion.ParseConstraint(raw)
			if err != nil {
				return false, fmt.Errorf("repos: entry %s: %w", entry.Name, err)
			}
			if constraint.Contains(targetVersion) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	return true, nil
}

// FirstApplicableEntry returns the first entry in repo whose
// predicates all match target.
func FirstApplicableEntry(repo Repository, target TargetEnvironment) (RepoEntry, bool, error) {
	for _, entry := range repo.Entries {
		ok, err := Applicable(entry, target)
		if err != nil {
			return RepoEntry{}, false, err
		}
		if ok {
			return entry, true, nil
		}
	}
	return RepoEntry{}, false, nil
}

// Enabled reports whether repo should be activated given a
// whitelist/blacklist of repository names. Name comparisons are
// case-insensitive. A repo is enabled iff
// (repo.Enabled || name ∈ whitelist) && name ∉ blacklist.
func Enabled(repo Repository, whitelist, blacklist []string) bool {
	name := strings.ToLower(repo.Name)

	if containsFold(blacklist, name) {
		return false
	}
	return repo.Enabled || containsFold(whitelist, name)
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.ToLower(n) == name {
			return true
		}
	}
	return false
}
