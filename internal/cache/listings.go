// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"time"
)

// Listing groups. Each public list endpoint caches under one group so a
// write to that entity can drop every cached page of it at once.
const (
	GroupPeople    = "people"
	GroupCompanies = "companies"
	GroupEvents    = "events"
	GroupFeed      = "feed"
	GroupTags      = "tags"
	GroupTimeline  = "timeline"
)

// ListingCache stores rendered JSON payloads of the public list
// endpoints. Keys are {group}:{query signature}; TTLs are short since
// writes invalidate the whole group anyway.
type ListingCache struct {
	cache Cacher
	ttl   time.Duration
}

// NewListingCache creates a listing cache over the given backend.
func NewListingCache(cache Cacher, ttl time.Duration) *ListingCache {
	return &ListingCache{
		cache: cache,
		ttl:   ttl,
	}
}

// Key builds a cache key from a group and the request parameters that
// shape the response.
func Key(group string, parts ...string) string {
	if len(parts) == 0 {
		return group
	}
	return group + ":" + strings.Join(parts, ":")
}

// Get returns the cached payload for key, or nil and false on a miss.
func (c *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a payload under key. Failures are ignored; the response
// was already computed.
func (c *ListingCache) Set(ctx context.Context, key string, payload []byte) {
	_ = c.cache.Set(ctx, key, payload, c.ttl)
}

// InvalidateGroup drops every cached payload in a group.
func (c *ListingCache) InvalidateGroup(ctx context.Context, group string) {
	if pd, ok := c.cache.(PrefixDeleter); ok {
		_ = pd.DeleteByPrefix(ctx, group+":")
		_ = c.cache.Delete(ctx, group)
		return
	}
	_ = c.cache.Clear(ctx)
}

// Clear drops all cached listings.
func (c *ListingCache) Clear(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// Stats returns backend statistics when the backend tracks them.
func (c *ListingCache) Stats() Stats {
	if sp, ok := c.cache.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// ResetStats resets backend statistics when the backend tracks them.
func (c *ListingCache) ResetStats() {
	if sp, ok := c.cache.(StatsProvider); ok {
		sp.ResetStats()
	}
}
