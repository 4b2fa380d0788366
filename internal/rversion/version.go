// Package rversion implements the version syntax and comparison rules used
// by CRAN-style DCF fields (Depends, Imports, LinkingTo, Suggests,
// Enhances). Unlike PEP 440 or semver, an R package version is simply a
// sequence of non-negative integers separated by '.' or '-'.
package rversion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// separators splits a version literal on '.' or '-'; both are field
// separators in the R/CRAN convention (e.g. "1.0-3" and "1.0.3" parse to
// the same component vector).
var separators = regexp.MustCompile(`[.-]`)

// Version is an ordered sequence of non-negative integers together with
// the original literal it was parsed from. Literal is retained so that
// download URLs using the exact textual form remain reproducible, and so
// that display(parse(s)) == s holds for every parseable s.
type Version struct {
	Components []int
	Literal    string
}

// Parse splits the literal on '.'/'-' and parses every component as an
// unsigned base-10 integer. Parsing fails if any component is empty or
// contains a non-digit.
func Parse(literal string) (Version, error) {
	if literal == "" {
		return Version{}, fmt.Errorf("rversion: empty version string")
	}

	parts := separators.Split(literal, -1)
	components := make([]int, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("rversion: empty component in version %q", literal)
		}
		if strings.TrimLeft(part, "0123456789") != "" {
			return Version{}, fmt.Errorf("rversion: invalid component %q in version %q", part, literal)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("rversion: invalid component %q in version %q", part, literal)
		}
		components = append(components, n)
	}

	return Version{Components: components, Literal: literal}, nil
}

// MustParse parses literal and panics if it is not a valid version. It
// exists for table-driven tests and hardcoded constants, never for
// user-controlled input.
func MustParse(literal string) Version {
	v, err := Parse(literal)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original literal the version was parsed from.
func (v Version) String() string {
	return v.Literal
}

// IsZero reports whether v is the zero value (no version parsed).
func (v Version) IsZero() bool {
	return v.Literal == "" && v.Components == nil
}

// componentAt returns the i-th component of v, treating any index past
// the end of the vector as lower than zero. This gives shorter vectors
// the "right-padded with a sentinel below zero" semantics spec.md
// requires: 1.0 < 1.0.0.
func (v Version) componentAt(i int) int {
	if i < len(v.Components) {
		return v.Components[i]
	}
	return -1
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b, comparing lexicographically on the integer component vector.
// The literal form is ignored for comparison purposes.
func Compare(a, b Version) int {
	n := len(a.Components)
	if len(b.Components) > n {
		n = len(b.Components)
	}

	for i := 0; i < n; i++ {
		ac, bc := a.componentAt(i), b.componentAt(i)
		if ac != bc {
			if ac < bc {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Equal reports whether a and b have identical component vectors.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}

// Less reports whether a sorts strictly before b.
func Less(a, b Version) bool {
	return Compare(a, b) < 0
}

// joinedCanonical renders the component vector with '.' separators,
// independent of the original literal's separator choice. Nothing in
// the package calls it; String() returns the literal instead.
func (v Version) joinedCanonical() string {
	parts := make([]string, len(v.Components))
	for i, c := range v.Components {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}
