package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
)

// CachingFetcher serves fresh documents from a Store and fetches the rest.
// A failed fetch leaves the previous entry untouched.
type CachingFetcher struct {
	next   fetcher.Fetcher
	store  Store
	maxAge time.Duration
	now    func() time.Time
}

var _ fetcher.Fetcher = (*CachingFetcher)(nil)

// NewCachingFetcher wraps next. maxAge <= 0 uses DefaultMaxAge.
func NewCachingFetcher(next fetcher.Fetcher, store Store, maxAge time.Duration) *CachingFetcher {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CachingFetcher{next: next, store: store, maxAge: maxAge, now: time.Now}
}

// WithClock overrides the time source.
func (c *CachingFetcher) WithClock(now func() time.Time) *CachingFetcher {
	c.now = now
	return c
}

// Fetch implements fetcher.Fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	resp, _, err := c.FetchCached(ctx, url)
	return resp, err
}

// FetchCached is Fetch that also reports whether the body came from cache.
func (c *CachingFetcher) FetchCached(ctx context.Context, url string) (*fetcher.Response, bool, error) {
	prev, err := c.store.Get(ctx, url)
	if err != nil {
		zap.L().Warn("cache: read failed, fetching", zap.String("url", url), zap.Error(err))
		prev = nil
	}
	if prev != nil && prev.IsFresh(c.maxAge, c.now()) {
		zap.L().Debug("cache: hit", zap.String("url", url))
		return &fetcher.Response{
			URL:         prev.URL,
			StatusCode:  200,
			ContentType: prev.ContentType,
			Body:        prev.Content,
		}, true, nil
	}

	resp, err := c.next.Fetch(ctx, url)
	if err != nil {
		return nil, false, err
	}

	entry := NewEntry(url, resp.ContentType, resp.Body, c.now())
	if prev != nil && prev.ContentHash != entry.ContentHash {
		zap.L().Info("cache: content changed",
			zap.String("url", url),
			zap.String("old_hash", prev.ContentHash),
			zap.String("new_hash", entry.ContentHash),
		)
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return nil, false, eris.Wrapf(err, "cache: store %s", url)
	}
	return resp, false, nil
}

// Head implements fetcher.Fetcher. Probes are never cached.
func (c *CachingFetcher) Head(ctx context.Context, url string) (int, error) {
	return c.next.Head(ctx, url)
}
