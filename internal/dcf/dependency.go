package dcf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/r-lib/rig/internal/rversion"
)

// DepVersionSpec is one decomposed entry of a dependency field: a
// package name, the set of DCF fields it came from, and the constraints
// attached to it. Constraints within one spec are implicitly AND-ed.
type DepVersionSpec struct {
	Name        string
	Types       map[string]struct{}
	Constraints []rversion.VersionConstraint
}

// HasType reports whether depType contributed this spec.
func (d DepVersionSpec) HasType(depType string) bool {
	_, ok := d.Types[depType]
	return ok
}

// Range returns the intersection of d's constraints.
func (d DepVersionSpec) Range() rversion.Range {
	return rversion.IntersectAll(d.Constraints)
}

// ParseDependencyField decomposes a comma-separated dependency field
// (the value of Depends, Imports, LinkingTo, Suggests, or Enhances)
// into one DepVersionSpec per element. Each element has the form
// "Name" or "Name (op version)"; parentheses must balance exactly.
func ParseDependencyField(field, depType string) ([]DepVersionSpec, error) {
	var specs []DepVersionSpec

	for _, entry := range splitTopLevelCommas(field) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		spec, err := parseDependencyEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("dcf: parsing %q field entry %q: %w", depType, entry, err)
		}
		spec.Types = map[string]struct{}{depType: {}}
		specs = append(specs, spec)
	}

	return MergeSpecs(specs), nil
}

// splitTopLevelCommas splits on commas that are not nested inside
// parentheses.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + utf8.RuneLen(r)
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseDependencyEntry parses a single "Name" or "Name (op version)"
// element.
func parseDependencyEntry(entry string) (DepVersionSpec, error) {
	p := &depParser{s: entry}

	name := p.expectFunc(func(r rune) bool {
		return r != '(' && r != ' ' && r != '\t'
	})
	if name == "" {
		return DepVersionSpec{}, fmt.Errorf("missing package name")
	}

	p.skipSpace()

	if p.peekRune() == eofRune {
		return DepVersionSpec{Name: name}, nil
	}

	if p.peekRune() != '(' {
		return DepVersionSpec{}, fmt.Errorf("unexpected trailing text after %q", name)
	}
	p.next() // consume '('

	inner := p.expectFunc(func(r rune) bool { return r != ')' })

	if p.peekRune() != ')' {
		return DepVersionSpec{}, fmt.Errorf("unbalanced parentheses")
	}
	p.next() // consume ')'

	p.skipSpace()
	if p.peekRune() != eofRune {
		return DepVersionSpec{}, fmt.Errorf("unexpected trailing text after %q", entry)
	}

	constraint, err := rversion.ParseConstraint(strings.TrimSpace(inner))
	if err != nil {
		return DepVersionSpec{}, err
	}

	return DepVersionSpec{Name: name, Constraints: []rversion.VersionConstraint{constraint}}, nil
}

// MergeSpecs unions specs for the same package name: Types are unioned
// and Constraints are de-duplicated structurally (same operator and
// same version literal).
func MergeSpecs(specs []DepVersionSpec) []DepVersionSpec {
	byName := make(map[string]int)
	var merged []DepVersionSpec

	for _, s := range specs {
		if idx, ok := byName[s.Name]; ok {
			existing := &merged[idx]
			for t := range s.Types {
				existing.Types[t] = struct{}{}
			}
			for _, c := range s.Constraints {
				if !containsConstraint(existing.Constraints, c) {
					existing.Constraints = append(existing.Constraints, c)
				}
			}
			continue
		}

		types := make(map[string]struct{}, len(s.Types))
		for t := range s.Types {
			types[t] = struct{}{}
		}
		constraints := append([]rversion.VersionConstraint(nil), s.Constraints...)

		byName[s.Name] = len(merged)
		merged = append(merged, DepVersionSpec{Name: s.Name, Types: types, Constraints: constraints})
	}

	return merged
}

func containsConstraint(cs []rversion.VersionConstraint, c rversion.VersionConstraint) bool {
	for _, existing := range cs {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

const eofRune rune = -1

// depParser is a minimal string scanner, in the vein of a hand-rolled
// recursive-descent parser: no backtracking, one rune of lookahead.
type depParser struct {
	s   string
	pos int
}

func (p *depParser) expectFunc(f func(r rune) bool) string {
	start := p.pos
	for i, r := range p.s[p.pos:] {
		if !f(r) {
			return p.s[start : start+i]
		}
		p.pos += utf8.RuneLen(r)
	}
	return p.s[start:]
}

func (p *depParser) skipSpace() {
	for _, r := range p.s[p.pos:] {
		if r != ' ' && r != '\t' {
			break
		}
		p.pos += utf8.RuneLen(r)
	}
}

func (p *depParser) peekRune() rune {
	for _, r := range p.s[p.pos:] {
		return r
	}
	return eofRune
}

func (p *depParser) next() rune {
	for _, r := range p.s[p.pos:] {
		p.pos += utf8.RuneLen(r)
		return r
	}
	return eofRune
}
