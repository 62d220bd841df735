// Package cache provides the caching layer for oDir: a byte-oriented
// Cacher interface with in-memory and Redis backends, a typed JSON
// wrapper, and domain caches for settings and public listings.
package cache

import (
	"context"
	"time"
)

// Cacher is the interface all cache backends implement.
// Implementations must be safe for concurrent use. Values are []byte so
// the same interface serves both in-process and distributed backends.
type Cacher interface {
	// Get retrieves a value. Returns ErrCacheMiss when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL uses the
	// backend's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Has reports whether a key exists and is not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// PrefixDeleter is an optional interface for backends that support
// removing all keys under a prefix.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// StatsProvider is an optional interface for backends that track
// statistics.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// Stats holds cache statistics.
type Stats struct {
	Hits    int64      `json:"hits"`
	Misses  int64      `json:"misses"`
	Sets    int64      `json:"sets"`
	Items   int        `json:"items"`
	HitRate float64    `json:"hit_rate"`
	Size    int64      `json:"size_bytes,omitempty"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}

// Error is the error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
