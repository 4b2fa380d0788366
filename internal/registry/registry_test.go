package registry

import (
	"testing"

	"github.com/r-lib/rig/internal/rversion"
)

func TestInsertDedupeFirstWins(t *testing.T) {
	r := New()
	r.Insert(Package{Name: "foo", Version: rversion.MustParse("1.0"), DownloadURL: "first"})
	r.Insert(Package{Name: "foo", Version: rversion.MustParse("1.0"), DownloadURL: "second"})

	versions := r.Versions("foo")
	if len(versions) != 1 {
		t.Fatalf("got %d versions, want 1", len(versions))
	}
	if versions[0].DownloadURL != "first" {
		t.Errorf("DownloadURL = %q, want \"first\" (first insert wins)", versions[0].DownloadURL)
	}
}

func TestVersionsSortedDescending(t *testing.T) {
	r := New()
	for _, v := range []string{"1.0", "2.0", "1.5"} {
		r.Insert(Package{Name: "foo", Version: rversion.MustParse(v)})
	}

	versions := r.Versions("foo")
	want := []string{"2.0", "1.5", "1.0"}
	for i, w := range want {
		if versions[i].Version.Literal != w {
			t.Errorf("versions[%d] = %q, want %q", i, versions[i].Version.Literal, w)
		}
	}
}

func TestLatestRespectsRange(t *testing.T) {
	r := New()
	for _, v := range []string{"1.0", "2.0", "3.0"} {
		r.Insert(Package{Name: "foo", Version: rversion.MustParse(v)})
	}

	constraint, _ := rversion.ParseConstraint("< 3.0")
	pkg, ok := r.Latest("foo", rversion.FromConstraint(constraint))
	if !ok {
		t.Fatal("expected a candidate")
	}
	if pkg.Version.Literal != "2.0" {
		t.Errorf("Latest = %q, want \"2.0\"", pkg.Version.Literal)
	}
}

func TestLatestNoCandidate(t *testing.T) {
	r := New()
	r.Insert(Package{Name: "foo", Version: rversion.MustParse("1.0")})

	constraint, _ := rversion.ParseConstraint(">= 3.0")
	_, ok := r.Latest("foo", rversion.FromConstraint(constraint))
	if ok {
		t.Error("expected no candidate, got one")
	}
}

func TestIsBase(t *testing.T) {
	if !IsBase("utils") {
		t.Error("expected utils to be a base package")
	}
	if IsBase("ggplot2") {
		t.Error("expected ggplot2 to not be a base package")
	}
}
