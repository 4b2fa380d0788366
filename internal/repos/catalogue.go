package repos

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/repos.json
var builtinReposJSON []byte

//go:embed data/r-version-to-bioc-version.json
var rVersionToBiocVersionJSON []byte

// StaticCatalogue is the built-in set of repositories (CRAN, PPM,
// Bioconductor) and the R-to-Bioconductor version correspondence table.
// It is loaded once at package init from embedded JSON data, the one
// package-level singleton this repository carries.
var StaticCatalogue = mustLoadCatalogue()

type catalogue struct {
	Repos              []Repository
	RVersionToBiocVer  map[string]string
	biocVerToRVersions map[string][]string
}

func mustLoadCatalogue() catalogue {
	var repositories []Repository
	if err := json.Unmarshal(builtinReposJSON, &repositories); err != nil {
		panic(fmt.Sprintf("repos: embedded data/repos.json is invalid: %v", err))
	}

	var mapping map[string]string
	if err := json.Unmarshal(rVersionToBiocVersionJSON, &mapping); err != nil {
		panic(fmt.Sprintf("repos: embedded data/r-version-to-bioc-version.json is invalid: %v", err))
	}

	reverse := make(map[string][]string, len(mapping))
	for rVersion, biocVersion := range mapping {
		reverse[biocVersion] = append(reverse[biocVersion], rVersion)
	}

	return catalogue{
		Repos:              repositories,
		RVersionToBiocVer:  mapping,
		biocVerToRVersions: reverse,
	}
}

// BiocVersionFor returns the Bioconductor release corresponding to an R
// version string (e.g. "4.3.1" -> "3.17"), falling back to the
// major.minor prefix when the exact patch version isn't listed.
func BiocVersionFor(rVersion string) (string, bool) {
	if v, ok := StaticCatalogue.RVersionToBiocVer[rVersion]; ok {
		return v, true
	}

	majorMinor := majorMinorPrefix(rVersion)
	if majorMinor == "" {
		return "", false
	}
	v, ok := StaticCatalogue.RVersionToBiocVer[majorMinor]
	return v, ok
}

// RVersionsForBiocVersion returns the R versions known to pair with a
// given Bioconductor release. The order of the returned versions is not
// defined.
func RVersionsForBiocVersion(biocVersion string) []string {
	return StaticCatalogue.biocVerToRVersions[biocVersion]
}

func majorMinorPrefix(rVersion string) string {
	dot := 0
	for i := 0; i < len(rVersion); i++ {
		if rVersion[i] == '.' {
			dot++
			if dot == 2 {
				return rVersion[:i]
			}
		}
	}
	return ""
}
