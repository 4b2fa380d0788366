// Package cache implements a content-addressed metadata cache over
// HTTP: conditional GET with ETag revalidation, mtime-based TTL
// short-circuiting, and atomic writes.
package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/r-lib/rig/internal/rigerr"
)

// DefaultTTL is the freshness window applied when a caller doesn't
// specify one.
const DefaultTTL = 24 * time.Hour

// Status reports whether FetchIfNewer served a cached copy or pulled a
// new one.
type Status int

const (
	Fresh Status = iota
	Updated
)

func (s Status) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "updated"
}

// Result is the outcome of one FetchIfNewer call.
type Result struct {
	LocalPath string
	Status    Status
}

// FetchRequest is one entry of a FetchAllIfNewer batch.
type FetchRequest struct {
	URL       string
	LocalPath string
	TTL       time.Duration
}

// Cache fetches remote metadata files into a local directory, keeping
// an adjacent ".etag" sidecar per file and serializing concurrent
// requests for the same URL within the process.
type Cache struct {
	Client *http.Client
	Logger *zap.SugaredLogger

	sf singleflight.Group
}

// New returns a Cache with sane connect/read timeouts. A nil logger is
// replaced with a no-op logger.
func New(logger *zap.SugaredLogger) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{
		Client: &http.Client{Timeout: 60 * time.Second},
		Logger: logger,
	}
}

// FetchIfNewer implements the cache's six-step conditional-GET
// algorithm:
//
//  1. If localPath exists and is younger than ttl, return Fresh without
//     contacting the server.
//  2. Read any adjacent localPath+".etag" file.
//  3. Issue a GET with If-None-Match if an ETag is known.
//  4. On 304 Not Modified: touch localPath's mtime, return Fresh.
//  5. On 200 OK: write the body to a temp file, rename atomically over
//     localPath, persist the new ETag, return Updated.
//  6. On any other status: fail with a rigerr.MetadataFetch error.
//
// A single URL is never fetched concurrently by the same process; a
// second caller for the same URL blocks on and shares the first
// caller's round trip.
func (c *Cache) FetchIfNewer(ctx context.Context, url, localPath string, ttl time.Duration) (Result, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	v, err, _ := c.sf.Do(url, func() (interface{}, error) {
		return c.fetchIfNewer(ctx, url, localPath, ttl)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cache) fetchIfNewer(ctx context.Context, url, localPath string, ttl time.Duration) (Result, error) {
	if info, err := os.Stat(localPath); err == nil {
		if time.Since(info.ModTime()) < ttl {
			c.Logger.Debugw("cache hit, within TTL", "url", url)
			return Result{LocalPath: localPath, Status: Fresh}, nil
		}
	}

	etagPath := localPath + ".etag"
	var etag string
	if b, err := os.ReadFile(etagPath); err == nil {
		etag = string(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("cache: building request for %s: %w", url, err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, rigerr.Wrap(rigerr.MetadataFetch, fmt.Sprintf("cache: fetching %s", url), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		now := time.Now()
		if err := os.Chtimes(localPath, now, now); err != nil {
			return Result{}, fmt.Errorf("cache: touching %s: %w", localPath, err)
		}
		c.Logger.Debugw("cache revalidated, 304", "url", url)
		return Result{LocalPath: localPath, Status: Fresh}, nil

	case http.StatusOK:
		if err := writeAtomic(localPath, resp.Body); err != nil {
			return Result{}, fmt.Errorf("cache: writing %s: %w", localPath, err)
		}
		if newEtag := resp.Header.Get("ETag"); newEtag != "" {
			if err := os.WriteFile(etagPath, []byte(newEtag), 0o644); err != nil {
				return Result{}, fmt.Errorf("cache: writing etag for %s: %w", localPath, err)
			}
		}
		c.Logger.Infow("cache updated", "url", url, "path", localPath)
		return Result{LocalPath: localPath, Status: Updated}, nil

	default:
		return Result{}, rigerr.New(rigerr.MetadataFetch, fmt.Sprintf("cache: unexpected status %d fetching %s", resp.StatusCode, url))
	}
}

// writeAtomic writes body to a uuid-suffixed temp file in the same
// directory as localPath, then renames it into place so readers never
// observe a partial file.
func writeAtomic(localPath string, body io.Reader) error {
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp", uuid.NewString()))
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, localPath)
}

// FetchAllIfNewer fans independent requests out across an errgroup,
// returning results in the same order as reqs.
func (c *Cache) FetchAllIfNewer(ctx context.Context, reqs []FetchRequest) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := c.FetchIfNewer(ctx, req.URL, req.LocalPath, req.TTL)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
