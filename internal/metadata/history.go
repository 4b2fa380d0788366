package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/rversion"
)

// HistoryEntry is one version of a package as reported by the
// per-package history service ("{base}/{package}/all"): a version
// together with its dependency fields, each a mapping of
// dep_name -> spec where "*" means "any version".
type HistoryEntry struct {
	Version rversion.Version
	Deps    []dcf.DepVersionSpec
}

// historyResponse mirrors the crandb-style JSON shape: a top-level
// "versions" object keyed by version string, each value carrying the
// dependency-field mappings.
type historyResponse struct {
	Versions map[string]historyVersion `json:"versions"`
}

type historyVersion struct {
	Depends   map[string]string `json:"Depends"`
	Imports   map[string]string `json:"Imports"`
	LinkingTo map[string]string `json:"LinkingTo"`
	Suggests  map[string]string `json:"Suggests"`
	Enhances  map[string]string `json:"Enhances"`
}

// ParseHistory decodes a package's version history JSON document into
// one HistoryEntry per version. A version whose literal fails to parse
// is skipped rather than failing the whole document, since the history
// service is a secondary, lazily-queried source.
func ParseHistory(body []byte) ([]HistoryEntry, error) {
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("metadata: decoding history document: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(resp.Versions))
	for literal, hv := range resp.Versions {
		v, err := rversion.Parse(literal)
		if err != nil {
			continue
		}

		var deps []dcf.DepVersionSpec
		for field, mapping := range map[string]map[string]string{
			"Depends": hv.Depends, "Imports": hv.Imports,
			"LinkingTo": hv.LinkingTo, "Suggests": hv.Suggests, "Enhances": hv.Enhances,
		} {
			specs, err := depSpecsFromMapping(mapping, field)
			if err != nil {
				continue
			}
			deps = dcf.MergeSpecs(append(deps, specs...))
		}

		entries = append(entries, HistoryEntry{Version: v, Deps: deps})
	}

	return entries, nil
}

// depSpecsFromMapping turns a dep_name -> spec mapping ("*" meaning any
// version) into DepVersionSpec values. A constrained spec (e.g. ">= 2.0")
// is wrapped as "Name (spec)" and parsed with the DCF dependency-field
// grammar.
func depSpecsFromMapping(mapping map[string]string, field string) ([]dcf.DepVersionSpec, error) {
	if len(mapping) == 0 {
		return nil, nil
	}

	var specs []dcf.DepVersionSpec
	for name, spec := range mapping {
		if spec == "" || spec == "*" {
			specs = append(specs, dcf.DepVersionSpec{
				Name:  name,
				Types: map[string]struct{}{field: {}},
			})
			continue
		}

		entry := fmt.Sprintf("%s (%s)", name, spec)
		parsed, err := dcf.ParseDependencyField(entry, field)
		if err != nil {
			return nil, err
		}
		specs = append(specs, parsed...)
	}

	return specs, nil
}
