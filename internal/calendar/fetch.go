package calendar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// Source is a single ICS subscription feed
type Source struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Fetcher downloads ICS feeds with a small disk-backed cache keyed by URL.
// ETag / Last-Modified headers are honored; on a 304 (or a network failure)
// the cached body is reused so a flaky feed degrades to stale data instead
// of an empty sync cycle.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchResult is the outcome of fetching a single source
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// FetchAll fetches every source. Individual failures are logged and skipped;
// the returned slice only contains sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []FetchResult {
	results := make([]FetchResult, 0, len(sources))
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			logging.Warn("calendar", "fetch %s failed: %v", src.ID, err)
			continue
		}
		results = append(results, res)
	}
	return results
}

// FetchOne fetches a single source, consulting the cache
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("build request: %w", err)
	}

	etag, lastMod := f.readMeta(src.URL)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Network failure: fall back to cached body if we have one
		if body, ok := f.readBody(src.URL); ok {
			logging.Warn("calendar", "fetch %s failed, using cached body: %v", src.ID, err)
			return FetchResult{Source: src, Body: body, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("fetch %s: %w", redactURL(src.URL), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		body, ok := f.readBody(src.URL)
		if !ok {
			return FetchResult{}, fmt.Errorf("304 for %s but no cached body", redactURL(src.URL))
		}
		return FetchResult{Source: src, Body: body, FromCache: true}, nil

	case resp.StatusCode != http.StatusOK:
		return FetchResult{}, fmt.Errorf("fetch %s: unexpected status %d", redactURL(src.URL), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return FetchResult{}, fmt.Errorf("read body: %w", err)
	}

	f.writeCache(src.URL, body, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"))
	return FetchResult{Source: src, Body: body}, nil
}

func (f *Fetcher) cachePath(rawURL, name string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]), name)
}

func (f *Fetcher) readMeta(rawURL string) (etag, lastMod string) {
	data, err := os.ReadFile(f.cachePath(rawURL, "meta"))
	if err != nil {
		return "", ""
	}
	lines := []byte(data)
	// meta format: two lines, etag then last-modified
	parts := splitTwoLines(string(lines))
	return parts[0], parts[1]
}

func (f *Fetcher) readBody(rawURL string) ([]byte, bool) {
	data, err := os.ReadFile(f.cachePath(rawURL, "body.ics"))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *Fetcher) writeCache(rawURL string, body []byte, etag, lastMod string) {
	dir := filepath.Dir(f.cachePath(rawURL, "body.ics"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Debug("calendar", "cache dir create failed: %v", err)
		return
	}
	if err := os.WriteFile(f.cachePath(rawURL, "body.ics"), body, 0o644); err != nil {
		logging.Debug("calendar", "cache body write failed: %v", err)
		return
	}
	meta := etag + "\n" + lastMod + "\n"
	if err := os.WriteFile(f.cachePath(rawURL, "meta"), []byte(meta), 0o644); err != nil {
		logging.Debug("calendar", "cache meta write failed: %v", err)
	}
}

func splitTwoLines(s string) [2]string {
	var out [2]string
	line := 0
	start := 0
	for i := 0; i < len(s) && line < 2; i++ {
		if s[i] == '\n' {
			out[line] = s[start:i]
			line++
			start = i + 1
		}
	}
	return out
}

// redactURL strips query parameters (often secret tokens in ICS URLs) for logs
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
