package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/r-lib/rig/internal/cache"
	"github.com/r-lib/rig/internal/registry"
)

// Loader ties a Cache to a Registry: it downloads (or reuses a cached
// copy of) repository metadata and inserts the resulting packages.
type Loader struct {
	Cache    *cache.Cache
	CacheDir string
	Logger   *zap.SugaredLogger
	TTL      time.Duration
}

// NewLoader returns a Loader rooted at cacheDir, using c for HTTP
// fetches. A nil logger is replaced with a no-op logger.
func NewLoader(c *cache.Cache, cacheDir string, logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{Cache: c, CacheDir: cacheDir, Logger: logger, TTL: cache.DefaultTTL}
}

// LoadRepo fetches packagesURL (a PACKAGES or PACKAGES.gz endpoint),
// parses it, and inserts every package it describes into reg.
func (l *Loader) LoadRepo(ctx context.Context, reg *registry.Registry, packagesURL string) error {
	localPath := filepath.Join(l.CacheDir, cacheFileName(packagesURL))

	res, err := l.Cache.FetchIfNewer(ctx, packagesURL, localPath, l.TTL)
	if err != nil {
		return fmt.Errorf("metadata: loading repo %s: %w", packagesURL, err)
	}
	l.Logger.Infow("loaded repository metadata", "url", packagesURL, "status", res.Status.String())

	f, err := os.Open(res.LocalPath)
	if err != nil {
		return fmt.Errorf("metadata: opening cached archive %s: %w", res.LocalPath, err)
	}
	defer f.Close()

	packages, err := LoadPackagesArchive(f)
	if err != nil {
		return fmt.Errorf("metadata: loading repo %s: %w", packagesURL, err)
	}

	for _, pkg := range packages {
		reg.Insert(pkg)
	}
	return nil
}

// LoadHistories queries the per-package history endpoint for each name
// in names, fanning requests out concurrently, and returns the parsed
// entries keyed by package name. The solver does not call it, so a
// solve sees only the versions the loaded PACKAGES archives list.
func (l *Loader) LoadHistories(ctx context.Context, historyBaseURL string, names []string) (map[string][]HistoryEntry, error) {
	results := make([]struct {
		name    string
		entries []HistoryEntry
	}, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			entries, err := l.fetchHistory(ctx, historyBaseURL, name)
			if err != nil {
				return err
			}
			results[i].name = name
			results[i].entries = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]HistoryEntry, len(names))
	for _, r := range results {
		out[r.name] = r.entries
	}
	return out, nil
}

func (l *Loader) fetchHistory(ctx context.Context, baseURL, name string) ([]HistoryEntry, error) {
	url := fmt.Sprintf("%s/%s/all", baseURL, name)
	localPath := filepath.Join(l.CacheDir, "packages", fmt.Sprintf("package-%s.json", name))

	res, err := l.Cache.FetchIfNewer(ctx, url, localPath, l.TTL)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetching history for %s: %w", name, err)
	}

	body, err := os.ReadFile(res.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("metadata: reading history for %s: %w", name, err)
	}

	entries, err := ParseHistory(body)
	if err != nil {
		return nil, fmt.Errorf("metadata: parsing history for %s: %w", name, err)
	}
	return entries, nil
}

// cacheFileName follows the repository's persisted-state layout:
// <cache>/repo-<sha256(url)>.dcf.
func cacheFileName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("repo-%s.dcf", hex.EncodeToString(sum[:]))
}
