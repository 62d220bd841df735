package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache wraps a Cacher with JSON serialization for a single value
// type.
type TypedCache[T any] struct {
	cache      Cacher
	defaultTTL time.Duration
}

// NewTypedCache creates a TypedCache over the given backend.
func NewTypedCache[T any](cache Cacher, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value. Decode failures are treated as misses so a
// schema change never serves stale shapes.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return &value, true
}

// Set stores a value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.cache.Set(ctx, key, data, ttl)
}

// Delete removes a key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// Has reports whether a key exists.
func (c *TypedCache[T]) Has(ctx context.Context, key string) bool {
	has, _ := c.cache.Has(ctx, key)
	return has
}

// GetOrSet returns the cached value, or computes and stores it on a
// miss.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	return c.GetOrSetWithTTL(ctx, key, c.defaultTTL, fn)
}

// GetOrSetWithTTL returns the cached value, or computes and stores it
// with a custom TTL on a miss. Store failures are ignored since the
// computed value is still valid for the caller.
func (c *TypedCache[T]) GetOrSetWithTTL(ctx context.Context, key string, ttl time.Duration, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	_ = c.SetWithTTL(ctx, key, value, ttl)

	return value, nil
}
