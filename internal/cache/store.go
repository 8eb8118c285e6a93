// Package cache persists fetched documents keyed by URL hash and per-subject
// discovery metadata keyed by subject id.
package cache

import (
	"context"
	"crypto/md5" //nolint:gosec // key derivation, not security
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// Store is the cache and metadata backend. Get and GetMetadata return nil
// with no error when the key is absent. Writes replace the whole value.
type Store interface {
	Get(ctx context.Context, url string) (*model.CacheEntry, error)
	Put(ctx context.Context, entry model.CacheEntry) error
	GetMetadata(ctx context.Context, subjectID string) (*model.SubjectMetadata, error)
	SaveMetadata(ctx context.Context, meta model.SubjectMetadata) error
	// Prune deletes cache entries fetched before cutoff and returns how many
	// were removed. Metadata is never pruned.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// DefaultMaxAge is how long a cached document is reused without refetching.
const DefaultMaxAge = 24 * time.Hour

// Key derives the cache key for a URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// ContentHash is the sha256 hex digest of a document body.
func ContentHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// NewEntry builds a cache entry for a freshly fetched body.
func NewEntry(url, contentType string, body []byte, now time.Time) model.CacheEntry {
	return model.CacheEntry{
		URL:         url,
		ContentHash: ContentHash(body),
		LastFetched: now.UTC(),
		ContentType: contentType,
		Content:     body,
	}
}
