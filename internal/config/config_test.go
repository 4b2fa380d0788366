package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMissingFileReturnsEmptyConfig(t *testing.T) {
	c, err := Read(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(c.UserLibrary) != 0 {
		t.Errorf("expected empty UserLibrary, got %v", c.UserLibrary)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := &Config{UserLibrary: map[string]string{"4.3.0": "/opt/r/4.3.0/library"}}
	if err := Write(c, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reread, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, ok := reread.UserLibraryFor("4.3.0"); !ok || got != "/opt/r/4.3.0/library" {
		t.Errorf("UserLibraryFor(4.3.0) = %q, %v, want /opt/r/4.3.0/library, true", got, ok)
	}
}

func TestSetUserLibraryThenWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := &Config{}
	c.SetUserLibrary("4.2.0", "/opt/r/4.2.0/library")
	if err := Write(c, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(contents) == 0 {
		t.Fatal("expected non-empty config file")
	}

	reread, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, ok := reread.UserLibraryFor("4.2.0"); !ok || got != "/opt/r/4.2.0/library" {
		t.Errorf("UserLibraryFor(4.2.0) = %q, %v", got, ok)
	}
}
