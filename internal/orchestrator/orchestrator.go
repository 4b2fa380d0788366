// Package orchestrator wires together the cache, metadata, repos,
// solver, profile, and lockfile packages into the handful of
// operations cmd/rig exposes as subcommands.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/r-lib/rig/internal/cache"
	"github.com/r-lib/rig/internal/config"
	"github.com/r-lib/rig/internal/dcf"
	"github.com/r-lib/rig/internal/lockfile"
	"github.com/r-lib/rig/internal/metadata"
	"github.com/r-lib/rig/internal/profile"
	"github.com/r-lib/rig/internal/registry"
	"github.com/r-lib/rig/internal/repos"
	"github.com/r-lib/rig/internal/rigerr"
	"github.com/r-lib/rig/internal/rversion"
	"github.com/r-lib/rig/internal/solver"
)

// Orchestrator owns the long-lived state a command invocation shares:
// the HTTP cache, where downloaded metadata and user config live, and
// the logger every subcommand reports through.
type Orchestrator struct {
	Cache    *cache.Cache
	CacheDir string
	DataDir  string
	Logger   *zap.SugaredLogger
}

// New builds an Orchestrator with a fresh cache and a no-op logger if
// logger is nil.
func New(cacheDir, dataDir string, logger *zap.SugaredLogger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		Cache:    cache.New(logger),
		CacheDir: cacheDir,
		DataDir:  dataDir,
		Logger:   logger,
	}
}

// ReposSetup loads every enabled, applicable repository entry in the
// static catalogue into one registry, and rewrites the repositories
// TSV at tsvPath to reflect the entries that were activated.
func (o *Orchestrator) ReposSetup(ctx context.Context, target repos.TargetEnvironment, whitelist, blacklist []string, tsvPath string) (*registry.Registry, error) {
	reg := registry.New()
	loader := metadata.NewLoader(o.Cache, o.CacheDir, o.Logger)

	var activated []repos.RepoEntry
	for _, repo := range repos.StaticCatalogue.Repos {
		if !repos.Enabled(repo, whitelist, blacklist) {
			continue
		}

		entry, ok, err := repos.FirstApplicableEntry(repo, target)
		if err != nil {
			return nil, fmt.Errorf("repos setup: evaluating applicability for %s: %w", repo.Name, err)
		}
		if !ok {
			continue
		}

		if err := loader.LoadRepo(ctx, reg, entry.URL); err != nil {
			return nil, fmt.Errorf("repos setup: loading %s: %w", entry.Name, err)
		}
		activated = append(activated, entry)
		o.Logger.Infof("repos setup: activated %s (%s)", entry.Name, entry.URL)
	}

	if tsvPath != "" {
		if err := o.writeRepositoriesTSV(tsvPath, activated); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func (o *Orchestrator) writeRepositoriesTSV(tsvPath string, activated []repos.RepoEntry) error {
	f, err := profile.ReadRepositoriesFile(tsvPath)
	if err != nil {
		f = &profile.RepositoriesFile{}
	}
	for _, entry := range activated {
		profile.CommentOutAndAdd(f, profile.EntryForRepository(entry))
	}
	return f.Write(tsvPath)
}

// ProjDeps solves rootDeps against reg (composed with the virtual R
// and _project sources) and writes an renv-compatible lock file to
// lockPath.
func (o *Orchestrator) ProjDeps(reg *registry.Registry, rootDeps map[string]rversion.Range, rVersion rversion.Version, lockRepos []lockfile.LockRepository, lockPath string) (*solver.Solution, error) {
	source := solver.CombinedSource{
		solver.NewProjectSource(rootDeps),
		solver.NewRSource(rVersion),
		&solver.RegistrySource{Registry: reg},
	}

	root := map[string]rversion.Range{
		"_project": rversion.FromConstraint(rversion.VersionConstraint{Op: rversion.OpEqual, Version: rversion.MustParse("0")}),
	}

	sol, err := solver.Solve(source, root)
	if err != nil {
		return nil, rigerr.Wrap(rigerr.Unsatisfiable, "resolving project dependencies", err)
	}

	if err := o.writeLockfile(sol, reg, rVersion.String(), lockRepos, lockPath); err != nil {
		return nil, err
	}
	return sol, nil
}

func (o *Orchestrator) writeLockfile(sol *solver.Solution, reg *registry.Registry, rVersion string, lockRepos []lockfile.LockRepository, lockPath string) error {
	w, err := os.Create(lockPath)
	if err != nil {
		return rigerr.Wrap(rigerr.CacheIO, "creating lock file", err)
	}
	defer w.Close()

	if err := lockfile.WriteLockfile(w, sol, reg, rVersion, lockRepos); err != nil {
		return err
	}
	o.Logger.Infof("proj deps: wrote lock file to %s", lockPath)
	return nil
}

// PackageSummary is one row of ReposListPackages' output.
type PackageSummary struct {
	Name    string
	Version string
}

// ReposListPackages returns one row per package known to reg, carrying
// only its latest version, sorted by name.
func ReposListPackages(reg *registry.Registry) []PackageSummary {
	names := reg.Names()
	out := make([]PackageSummary, 0, len(names))
	for _, name := range names {
		versions := reg.Versions(name)
		if len(versions) == 0 {
			continue
		}
		out = append(out, PackageSummary{Name: name, Version: versions[0].Version.String()})
	}
	return out
}

// PackageInfo returns the latest known record for a package name, or
// a rigerr.UnknownPackage error if reg has never seen it.
func PackageInfo(reg *registry.Registry, name string) (registry.Package, error) {
	versions := reg.Versions(name)
	if len(versions) == 0 {
		return registry.Package{}, rigerr.New(rigerr.UnknownPackage, name)
	}
	return versions[0], nil
}

// PackageVersionSummary is one row of PackageVersions' output: a
// historical version of a package and its direct dependency names.
type PackageVersionSummary struct {
	Version rversion.Version
	Deps    []dcf.DepVersionSpec
}

// PackageVersions fetches the full version history of name from the
// crandb-style history endpoint and returns it sorted ascending.
func (o *Orchestrator) PackageVersions(ctx context.Context, historyBaseURL, name string) ([]PackageVersionSummary, error) {
	loader := metadata.NewLoader(o.Cache, o.CacheDir, o.Logger)
	histories, err := loader.LoadHistories(ctx, historyBaseURL, []string{name})
	if err != nil {
		return nil, fmt.Errorf("repos package-versions: %w", err)
	}

	entries := histories[name]
	sort.Slice(entries, func(i, j int) bool { return rversion.Less(entries[i].Version, entries[j].Version) })

	out := make([]PackageVersionSummary, len(entries))
	for i, e := range entries {
		out[i] = PackageVersionSummary{Version: e.Version, Deps: e.Deps}
	}
	return out, nil
}

// LoadConfig reads <DataDir>/config.json.
func (o *Orchestrator) LoadConfig() (*config.Config, error) {
	return config.Read(o.configPath())
}

// SaveConfig writes c to <DataDir>/config.json.
func (o *Orchestrator) SaveConfig(c *config.Config) error {
	return config.Write(c, o.configPath())
}

func (o *Orchestrator) configPath() string {
	return filepath.Join(o.DataDir, "config.json")
}
