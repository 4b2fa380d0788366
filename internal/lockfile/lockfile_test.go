package lockfile

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/registry"
	"github.com/r-lib/rig/internal/rversion"
	"github.com/r-lib/rig/internal/solver"
)

func mustVersion(t *testing.T, s string) rversion.Version {
	t.Helper()
	v, err := rversion.Parse(s)
	if err != nil {
		t.Fatalf("rversion.Parse(%q): %v", s, err)
	}
	return v
}

func TestWriteLockfileSkipsVirtualAndBasePackages(t *testing.T) {
	reg := registry.New()
	reg.Insert(registry.Package{
		Name:    "foo",
		Version: mustVersion(t, "1.0"),
		Deps: []dcf.DepVersionSpec{
			{Name: "utils", Types: map[string]struct{}{"Depends": {}}},
			{Name: "bar", Types: map[string]struct{}{"Imports": {}}},
		},
	})
	reg.Insert(registry.Package{Name: "bar", Version: mustVersion(t, "2.0")})

	sol := &solver.Solution{Versions: map[string]rversion.Version{
		"R":        mustVersion(t, "4.3.0"),
		"_project": mustVersion(t, "0"),
		"foo":      mustVersion(t, "1.0"),
		"bar":      mustVersion(t, "2.0"),
		"utils":    mustVersion(t, "4.3.0"),
	}}

	var buf bytes.Buffer
	if err := WriteLockfile(&buf, sol, reg, "4.3.0", []LockRepository{{Name: "CRAN", URL: "https://cran.r-project.org"}}); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	packages, ok := decoded["Packages"].(map[string]interface{})
	if !ok {
		t.Fatalf("Packages is not an object: %v", decoded["Packages"])
	}
	if _, ok := packages["R"]; ok {
		t.Error("virtual R package must not appear in Packages")
	}
	if _, ok := packages["_project"]; ok {
		t.Error("virtual _project package must not appear in Packages")
	}
	if _, ok := packages["utils"]; ok {
		t.Error("base package utils must not appear in Packages")
	}
	if _, ok := packages["foo"]; !ok {
		t.Error("expected foo in Packages")
	}

	foo := packages["foo"].(map[string]interface{})
	deps, _ := foo["Depends"].([]interface{})
	if len(deps) != 1 || deps[0] != "bar" {
		t.Errorf("foo.Depends = %v, want [\"bar\"] (utils is base, excluded)", deps)
	}

	r, ok := decoded["R"].(map[string]interface{})
	if !ok || r["Version"] != "4.3.0" {
		t.Errorf("R.Version = %v, want 4.3.0", decoded["R"])
	}
}
