package render

import (
	"context"
	"crypto/tls"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/plenumwatch/knesset-presence/telemetry"
)

// PortraitFetcher retrieves raw portrait bytes for a member. Implementations
// return an error on any network or HTTP failure; the composer treats that as
// a skipped slot, never a failed render.
type PortraitFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches portraits from the Knesset site. Same header and TLS
// quirks as the attendance feed.
type HTTPFetcher struct {
	HTTPClient *http.Client
}

// NewHTTPFetcher returns a fetcher with its own client tuned for image
// downloads.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // upstream serves an incomplete chain
			},
		},
	}
}

// Fetch downloads one portrait.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portrait fetch status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}

// portraitCache is a key→bytes mapping on local disk. Entries are keyed by a
// stable hash of the portrait URL and never invalidated; portraits change
// rarely enough that staleness is acceptable.
type portraitCache struct {
	dir string
}

func newPortraitCache(dir string) (*portraitCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir portrait cache: %w", err)
	}
	return &portraitCache{dir: dir}, nil
}

func (pc *portraitCache) path(url string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(url))
	return filepath.Join(pc.dir, fmt.Sprintf("%x.jpg", h.Sum64()))
}

// get returns cached bytes or nil when absent.
func (pc *portraitCache) get(url string) []byte {
	data, err := os.ReadFile(pc.path(url))
	if err != nil {
		return nil
	}
	return data
}

func (pc *portraitCache) put(url string, data []byte) {
	if err := os.WriteFile(pc.path(url), data, 0o644); err != nil {
		slog.Warn("portrait cache write failed", slog.String("url", url), slog.Any("err", err))
	}
}

// portrait returns the portrait bytes for url, consulting the cache first.
func (c *Composer) portrait(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty portrait url")
	}
	if data := c.cache.get(url); data != nil {
		telemetry.PortraitCacheHits.Inc()
		return data, nil
	}
	telemetry.PortraitCacheMisses.Inc()
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.cache.put(url, data)
	return data, nil
}
