// Package metadata loads CRAN-style repository metadata -- PACKAGES
// archives and per-package version history -- into a registry.Registry.
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/registry"
	"github.com/r-lib/rig/internal/rversion"
)

var dependencyFields = []string{"Depends", "Imports", "LinkingTo", "Suggests", "Enhances"}

// LoadPackagesArchive parses a PACKAGES (or PACKAGES.gz) stream into
// one registry.Package per DCF paragraph. Paragraphs missing Package or
// Version are skipped. Optional fields other than Built are dropped
// silently if malformed; a malformed Built field fails the whole
// record.
func LoadPackagesArchive(r io.Reader) ([]registry.Package, error) {
	src, err := maybeDecompress(r)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	paragraphs, err := dcf.ParseParagraphs(src)
	if err != nil {
		return nil, fmt.Errorf("metadata: parsing PACKAGES archive: %w", err)
	}

	var packages []registry.Package
	for _, p := range paragraphs {
		pkg, ok, err := paragraphToPackage(p)
		if err != nil {
			return nil, err
		}
		if ok {
			packages = append(packages, pkg)
		}
	}
	return packages, nil
}

// maybeDecompress sniffs the gzip magic bytes and transparently wraps r
// in a gzip reader when present, so callers don't need to know whether
// they fetched PACKAGES or PACKAGES.gz.
func maybeDecompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip archive: %w", err)
		}
		return gz, nil
	}
	return br, nil
}

func paragraphToPackage(p dcf.Paragraph) (registry.Package, bool, error) {
	name, ok := p.Get("Package")
	if !ok || strings.TrimSpace(name) == "" {
		return registry.Package{}, false, nil
	}
	versionField, ok := p.Get("Version")
	if !ok || strings.TrimSpace(versionField) == "" {
		return registry.Package{}, false, nil
	}

	v, err := rversion.Parse(strings.TrimSpace(versionField))
	if err != nil {
		return registry.Package{}, false, nil
	}

	pkg := registry.Package{Name: strings.TrimSpace(name), Version: v}

	var deps []dcf.DepVersionSpec
	for _, field := range dependencyFields {
		value, ok := p.Get(field)
		if !ok {
			continue
		}
		specs, err := dcf.ParseDependencyField(value, field)
		if err != nil {
			continue // malformed optional field: dropped silently
		}
		deps = dcf.MergeSpecs(append(deps, specs...))
	}
	pkg.Deps = deps

	if builtField, ok := p.Get("Built"); ok {
		built, err := dcf.ParseBuilt(builtField)
		if err != nil {
			return registry.Package{}, false, fmt.Errorf("metadata: package %s: %w", pkg.Name, err)
		}
		pkg.Built = &built
	}

	if v, ok := p.Get("License"); ok {
		pkg.License = v
	}
	if v, ok := p.Get("Path"); ok {
		pkg.Path = v
	}
	if v, ok := p.Get("File"); ok {
		pkg.File = v
	}

	return pkg, true, nil
}
