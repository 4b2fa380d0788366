package main

import "testing"

func TestRunVersion(t *testing.T) {
	code, err := run([]string{"rig", "version"})
	if err != nil {
		t.Fatalf("run(version): %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunHelp(t *testing.T) {
	for _, args := range [][]string{{"rig"}, {"rig", "help"}, {"rig", "--help"}} {
		code, err := run(args)
		if err != nil {
			t.Fatalf("run(%v): %v", args, err)
		}
		if code != 2 {
			t.Errorf("run(%v) exit code = %d, want 2", args, code)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	code, err := run([]string{"rig", "frobnicate"})
	if err != nil {
		t.Fatalf("run(frobnicate): %v", err)
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRunUnknownReposSubcommand(t *testing.T) {
	code, err := run([]string{"rig", "repos", "frobnicate"})
	if err != nil {
		t.Fatalf("run(repos frobnicate): %v", err)
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestSplitDepSpec(t *testing.T) {
	name, rng, err := splitDepSpec("dplyr>=1.0.0")
	if err != nil {
		t.Fatalf("splitDepSpec: %v", err)
	}
	if name != "dplyr" {
		t.Errorf("name = %q, want dplyr", name)
	}
	if rng.IsAny() || rng.IsEmpty() {
		t.Errorf("expected a bounded range for >=1.0.0, got %v", rng)
	}

	name, rng, err = splitDepSpec("dplyr")
	if err != nil {
		t.Fatalf("splitDepSpec: %v", err)
	}
	if name != "dplyr" || !rng.IsAny() {
		t.Errorf("splitDepSpec(dplyr) = %q, %v, want unconstrained range", name, rng)
	}
}
