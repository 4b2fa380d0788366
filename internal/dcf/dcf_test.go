package dcf

import (
	"strings"
	"testing"

	"github.com/r-lib/rig/internal/rversion"
)

func TestParseParagraphsBasic(t *testing.T) {
	input := "Package: foo\nVersion: 1.0\nImports:\n  bar,\n  baz\n\nPackage: bar\nVersion: 2.0\n"
	paragraphs, err := ParseParagraphs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("got %d paragraphs, want 2", len(paragraphs))
	}

	name, ok := paragraphs[0].Get("Package")
	if !ok || name != "foo" {
		t.Errorf("paragraphs[0].Package = %q, %v, want \"foo\", true", name, ok)
	}

	imports, ok := paragraphs[0].Get("Imports")
	if !ok {
		t.Fatalf("expected Imports field")
	}
	if !strings.Contains(imports, "bar") || !strings.Contains(imports, "baz") {
		t.Errorf("Imports = %q, want continuation lines folded in", imports)
	}
}

func TestParseParagraphsDuplicateKey(t *testing.T) {
	input := "Package: foo\nPackage: bar\n"
	_, err := ParseParagraphs(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for duplicate key, got nil")
	}
}

func TestParseParagraphsMalformedLine(t *testing.T) {
	input := "not a field line\n"
	_, err := ParseParagraphs(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for line with no colon, got nil")
	}
}

// TestParseDependencyField covers the literal scenario: input
// "foo (>= 1.0-3), bar, baz(< 2.0.0)" with dep_type Imports should
// yield three specs named foo, bar, baz.
func TestParseDependencyField(t *testing.T) {
	specs, err := ParseDependencyField("foo (>= 1.0-3), bar, baz(< 2.0.0)", "Imports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}

	byName := make(map[string]DepVersionSpec)
	for _, s := range specs {
		byName[s.Name] = s
	}

	foo, ok := byName["foo"]
	if !ok {
		t.Fatal("missing spec for foo")
	}
	if len(foo.Constraints) != 1 || foo.Constraints[0].Op != rversion.OpGreaterOrEqual || foo.Constraints[0].Version.Literal != "1.0-3" {
		t.Errorf("foo constraints = %+v, want one >= 1.0-3", foo.Constraints)
	}
	if !foo.HasType("Imports") {
		t.Errorf("foo should have type Imports")
	}

	bar, ok := byName["bar"]
	if !ok {
		t.Fatal("missing spec for bar")
	}
	if len(bar.Constraints) != 0 {
		t.Errorf("bar constraints = %+v, want none", bar.Constraints)
	}

	baz, ok := byName["baz"]
	if !ok {
		t.Fatal("missing spec for baz")
	}
	if len(baz.Constraints) != 1 || baz.Constraints[0].Version.Literal != "2.0.0" {
		t.Errorf("baz constraints = %+v, want one < 2.0.0", baz.Constraints)
	}
}

func TestParseDependencyFieldUnbalancedParens(t *testing.T) {
	_, err := ParseDependencyField("foo (>= 1.0", "Depends")
	if err == nil {
		t.Fatal("expected error for unbalanced parentheses, got nil")
	}
}

func TestMergeSpecsUnionsTypesAndDedupes(t *testing.T) {
	a, err := ParseDependencyField("pkg (>= 1.0)", "Depends")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ParseDependencyField("pkg (>= 1.0), pkg (< 2.0)", "Imports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := MergeSpecs(append(a, b...))
	if len(merged) != 1 {
		t.Fatalf("got %d merged specs, want 1", len(merged))
	}
	if len(merged[0].Constraints) != 2 {
		t.Fatalf("got %d constraints, want 2 (duplicate >= 1.0 deduped)", len(merged[0].Constraints))
	}
	if !merged[0].HasType("Depends") || !merged[0].HasType("Imports") {
		t.Errorf("expected merged spec to carry both Depends and Imports types")
	}
}

// TestParseBuilt covers the literal scenario: "R 4.3.0;
// x86_64-pc-linux-gnu; 2024-01-15 10:30:00 UTC; unix" parses into the
// four expected fields, and a blank platform segment means no
// platform.
func TestParseBuilt(t *testing.T) {
	built, err := ParseBuilt("R 4.3.0; x86_64-pc-linux-gnu; 2024-01-15 10:30:00 UTC; unix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.RVersion != "4.3.0" {
		t.Errorf("RVersion = %q, want \"4.3.0\"", built.RVersion)
	}
	if !built.HasPlatform || built.Platform != "x86_64-pc-linux-gnu" {
		t.Errorf("Platform = %q, HasPlatform = %v, want x86_64-pc-linux-gnu, true", built.Platform, built.HasPlatform)
	}
	if built.Timestamp != "2024-01-15 10:30:00 UTC" {
		t.Errorf("Timestamp = %q", built.Timestamp)
	}
	if built.OSType != "unix" {
		t.Errorf("OSType = %q, want \"unix\"", built.OSType)
	}
}

func TestParseBuiltNoPlatform(t *testing.T) {
	built, err := ParseBuilt("R 4.3.0; ; 2024-01-15 10:30:00 UTC; unix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.HasPlatform {
		t.Errorf("expected HasPlatform = false for blank platform segment, got Platform = %q", built.Platform)
	}
}

func TestParseBuiltWrongFieldCount(t *testing.T) {
	_, err := ParseBuilt("R 4.3.0; x86_64-pc-linux-gnu; 2024-01-15 10:30:00 UTC")
	if err == nil {
		t.Fatal("expected error for wrong field count, got nil")
	}
}
