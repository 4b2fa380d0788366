package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blang/semver/v4"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/r-lib/rig/internal/lockfile"
	"github.com/r-lib/rig/internal/orchestrator"
	"github.com/r-lib/rig/internal/repos"
	"github.com/r-lib/rig/internal/rigerr"
	"github.com/r-lib/rig/internal/rversion"
)

// Version identifies the version of rig. Overwritten by CI at release time.
var Version = "dev"

const defaultHelp = `rig resolves R package dependencies against CRAN-style repositories

Usage:

  rig <command> [options]

The commands are:

  repos setup            activate enabled repositories, write the repositories TSV
  repos list-packages    list every package known to the activated repositories
  repos package-info     show the latest known record for one package
  repos package-versions list every known version of one package
  proj deps               resolve a project's dependencies, write renv.lock
  version                 show rig version
`

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".rig-cache"
	}
	return filepath.Join(dir, "rig")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".rig"
	}
	return filepath.Join(dir, "rig")
}

func newOrchestrator() *orchestrator.Orchestrator {
	logger, err := zap.NewProduction()
	if err != nil {
		return orchestrator.New(defaultCacheDir(), defaultDataDir(), nil)
	}
	return orchestrator.New(defaultCacheDir(), defaultDataDir(), logger.Sugar())
}

func run(args []string) (int, error) {
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}

	switch arg {
	case "", "help", "--help", "-h":
		fmt.Print(defaultHelp)
		return 2, nil
	case "version", "--version":
		fmt.Printf("rig version: %s\n", Version)
		return 0, nil
	case "repos":
		return runRepos(args[1:])
	case "proj":
		return runProj(args[1:])
	default:
		fmt.Printf("rig %s: unknown command\n", arg)
		return 2, nil
	}
}

func runRepos(args []string) (int, error) {
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	switch sub {
	case "setup":
		return reposSetup(args[1:])
	case "list-packages":
		return reposListPackages(args[1:])
	case "package-info":
		return reposPackageInfo(args[1:])
	case "package-versions":
		return reposPackageVersions(args[1:])
	default:
		fmt.Printf("rig repos %s: unknown subcommand\n", sub)
		return 2, nil
	}
}

func reposSetup(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("repos setup", pflag.ContinueOnError)
	rVersionFlag := flagSet.String("r-version", "4.3.0", "target R version")
	osFlag := flagSet.String("os", "linux", "target OS")
	distroFlag := flagSet.String("distro", "", "target Linux distribution")
	releaseFlag := flagSet.String("release", "", "target distribution release")
	archFlag := flagSet.String("arch", "x86_64", "target CPU architecture")
	with := flagSet.StringSlice("with-repos", nil, "additionally enable these repositories")
	without := flagSet.StringSlice("without-repos", nil, "disable these repositories")
	tsvPath := flagSet.String("repositories-file", "", "path to the repositories TSV to update")
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}

	rVer, err := semver.Parse(*rVersionFlag)
	if err != nil {
		return 2, fmt.Errorf("invalid --r-version: %w", err)
	}

	target := repos.TargetEnvironment{
		OS: *osFlag, Distro: *distroFlag, Release: *releaseFlag, CPUArch: *archFlag, RVersion: rVer,
	}

	o := newOrchestrator()
	reg, err := o.ReposSetup(context.Background(), target, *with, *without, *tsvPath)
	if err != nil {
		return exitCodeFor(err), err
	}
	fmt.Printf("activated repositories cover %d packages\n", len(reg.Names()))
	return 0, nil
}

func reposListPackages(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("repos list-packages", pflag.ContinueOnError)
	rVersionFlag := flagSet.String("r-version", "4.3.0", "target R version")
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}

	rVer, err := semver.Parse(*rVersionFlag)
	if err != nil {
		return 2, fmt.Errorf("invalid --r-version: %w", err)
	}

	o := newOrchestrator()
	reg, err := o.ReposSetup(context.Background(), repos.TargetEnvironment{OS: "linux", RVersion: rVer}, nil, nil, "")
	if err != nil {
		return exitCodeFor(err), err
	}

	for _, pkg := range orchestrator.ReposListPackages(reg) {
		fmt.Printf("%s\t%s\n", pkg.Name, pkg.Version)
	}
	return 0, nil
}

func reposPackageInfo(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("repos package-info", pflag.ContinueOnError)
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}
	if flagSet.NArg() < 1 {
		fmt.Println("rig repos package-info: package name not provided")
		return 2, nil
	}
	name := flagSet.Arg(0)

	o := newOrchestrator()
	reg, err := o.ReposSetup(context.Background(), repos.TargetEnvironment{OS: "linux"}, nil, nil, "")
	if err != nil {
		return exitCodeFor(err), err
	}

	pkg, err := orchestrator.PackageInfo(reg, name)
	if err != nil {
		return exitCodeFor(err), err
	}
	fmt.Printf("Package: %s\nVersion: %s\nDownloadURL: %s\n", pkg.Name, pkg.Version, pkg.DownloadURL)
	return 0, nil
}

func reposPackageVersions(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("repos package-versions", pflag.ContinueOnError)
	historyBaseURL := flagSet.String("history-url", "https://crandb.r-pkg.org", "crandb-style history service base URL")
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}
	if flagSet.NArg() < 1 {
		fmt.Println("rig repos package-versions: package name not provided")
		return 2, nil
	}
	name := flagSet.Arg(0)

	o := newOrchestrator()
	versions, err := o.PackageVersions(context.Background(), *historyBaseURL, name)
	if err != nil {
		return exitCodeFor(err), err
	}

	for _, v := range versions {
		fmt.Printf("%s\t%s\n", name, v.Version)
	}
	return 0, nil
}

func runProj(args []string) (int, error) {
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	switch sub {
	case "deps":
		return projDeps(args[1:])
	default:
		fmt.Printf("rig proj %s: unknown subcommand\n", sub)
		return 2, nil
	}
}

func projDeps(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("proj deps", pflag.ContinueOnError)
	rVersionFlag := flagSet.String("r-version", "4.3.0", "target R version")
	lockPath := flagSet.String("lockfile", "renv.lock", "path to write the lock file to")
	deps := flagSet.StringSlice("dep", nil, "a direct dependency, e.g. \"dplyr>=1.0.0\" or \"dplyr\"")
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}

	rVer, err := semver.Parse(*rVersionFlag)
	if err != nil {
		return 2, fmt.Errorf("invalid --r-version: %w", err)
	}
	rVersion, err := rversion.Parse(rVer.String())
	if err != nil {
		return 2, fmt.Errorf("invalid --r-version: %w", err)
	}

	root, err := parseRootDeps(*deps)
	if err != nil {
		return 2, err
	}

	o := newOrchestrator()
	reg, err := o.ReposSetup(context.Background(), repos.TargetEnvironment{OS: "linux", RVersion: rVer}, nil, nil, "")
	if err != nil {
		return exitCodeFor(err), err
	}

	lockRepos := []lockfile.LockRepository{{Name: "CRAN", URL: "https://cran.r-project.org"}}
	sol, err := o.ProjDeps(reg, root, rVersion, lockRepos, *lockPath)
	if err != nil {
		return exitCodeFor(err), err
	}
	fmt.Printf("resolved %d packages, wrote %s\n", len(sol.Versions), *lockPath)
	return 0, nil
}

func parseRootDeps(specs []string) (map[string]rversion.Range, error) {
	root := make(map[string]rversion.Range, len(specs))
	for _, spec := range specs {
		name, rng, err := splitDepSpec(spec)
		if err != nil {
			return nil, err
		}
		root[name] = rng
	}
	return root, nil
}

func splitDepSpec(spec string) (string, rversion.Range, error) {
	for _, op := range []string{">=", "<=", "==", ">>", "<<", "=", ">", "<"} {
		if idx := indexOf(spec, op); idx > 0 {
			name := spec[:idx]
			constraint, err := rversion.ParseConstraint(spec[idx:])
			if err != nil {
				return "", rversion.Range{}, fmt.Errorf("parsing dependency %q: %w", spec, err)
			}
			return name, rversion.FromConstraint(constraint), nil
		}
	}
	return spec, rversion.Any(), nil
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func exitCodeFor(err error) int {
	var rerr *rigerr.Error
	if errors.As(err, &rerr) {
		return rerr.Kind.ExitCode()
	}
	return 2
}

func main() {
	exitCode, err := run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode)
}
