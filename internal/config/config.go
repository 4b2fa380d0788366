// Package config persists the per-user, R-version-keyed configuration
// rig stores outside the project directory.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/r-lib/rig/internal/rigerr"
)

// Config is the shape of <data>/config.json: the user library path to
// use for each installed R version.
type Config struct {
	UserLibrary map[string]string `json:"userlibrary"`
}

// Read loads path, returning an empty Config (not an error) if the
// file doesn't exist yet.
func Read(path string) (*Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{UserLibrary: make(map[string]string)}, nil
		}
		return nil, rigerr.Wrap(rigerr.CacheIO, "reading config", err)
	}

	var c Config
	if err := json.Unmarshal(bytes, &c); err != nil {
		return nil, rigerr.Wrap(rigerr.ParseError, "parsing config", err)
	}
	if c.UserLibrary == nil {
		c.UserLibrary = make(map[string]string)
	}
	return &c, nil
}

// Write serializes c to path, writing to a uuid-suffixed temp file in
// the same directory and renaming it into place.
func Write(c *Config, path string) error {
	bytes, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return rigerr.Wrap(rigerr.ParseError, "marshaling config", err)
	}
	bytes = append(bytes, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return rigerr.Wrap(rigerr.CacheIO, "creating config directory", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, bytes, 0o666); err != nil {
		return rigerr.Wrap(rigerr.CacheIO, "writing temp config file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return rigerr.Wrap(rigerr.CacheIO, "renaming temp config file into place", err)
	}
	return nil
}

// UserLibraryFor returns the configured user library path for an R
// version, if one has been set.
func (c *Config) UserLibraryFor(rVersion string) (string, bool) {
	path, ok := c.UserLibrary[rVersion]
	return path, ok
}

// SetUserLibrary records the user library path to use for an R
// version.
func (c *Config) SetUserLibrary(rVersion, path string) {
	if c.UserLibrary == nil {
		c.UserLibrary = make(map[string]string)
	}
	c.UserLibrary[rVersion] = path
}
