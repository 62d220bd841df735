// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/odir-go/internal/store"
)

// SettingsLister is the slice of the store the settings cache reads
// through. *store.Queries satisfies it.
type SettingsLister interface {
	ListSettings(ctx context.Context) ([]store.Setting, error)
}

// SettingsCache serves site settings from memory. The settings table is
// tiny and read on most requests, so the whole table is loaded once and
// invalidated on writes rather than cached row by row.
type SettingsCache struct {
	source SettingsLister
	mu     sync.RWMutex
	loaded bool
	values map[string]string

	hits         atomic.Int64
	misses       atomic.Int64
	loads        atomic.Int64
	statsResetAt atomic.Pointer[time.Time]
}

// NewSettingsCache creates a settings cache over the given source.
func NewSettingsCache(source SettingsLister) *SettingsCache {
	return &SettingsCache{
		source: source,
		values: make(map[string]string),
	}
}

// Get returns the value for a settings key, or "" when the key does not
// exist.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	if c.loaded {
		value, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
		}
		return value, nil
	}
	c.mu.RUnlock()

	if err := c.load(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, nil
}

// All returns a copy of all settings.
func (c *SettingsCache) All(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	if !c.loaded {
		c.mu.RUnlock()
		if err := c.load(ctx); err != nil {
			return nil, err
		}
		c.mu.RLock()
	}
	defer c.mu.RUnlock()

	result := make(map[string]string, len(c.values))
	for key, value := range c.values {
		result[key] = value
	}
	return result, nil
}

// load fetches the full settings table.
func (c *SettingsCache) load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have loaded while we waited for the lock
	if c.loaded {
		return nil
	}

	settings, err := c.source.ListSettings(ctx)
	if err != nil {
		return err
	}

	c.values = make(map[string]string, len(settings))
	for _, s := range settings {
		c.values[s.Key] = s.Value
	}
	c.loaded = true
	c.loads.Add(1)

	return nil
}

// Invalidate clears the cache, forcing a reload on next access. Call
// after any settings write.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.values = make(map[string]string)
}

// Preload loads all settings, for warming the cache at startup.
func (c *SettingsCache) Preload(ctx context.Context) error {
	return c.load(ctx)
}

// Stats returns cache statistics.
func (c *SettingsCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	c.mu.RLock()
	items := len(c.values)
	c.mu.RUnlock()

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.loads.Load(),
		Items:   items,
		HitRate: hitRate,
		ResetAt: c.statsResetAt.Load(),
	}
}

// ResetStats resets the cache statistics.
func (c *SettingsCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.loads.Store(0)
	now := time.Now()
	c.statsResetAt.Store(&now)
}

var _ StatsProvider = (*SettingsCache)(nil)
