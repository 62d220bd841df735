package cache

import (
	"context"
	"log/slog"
	"time"
)

// NamedStats pairs a cache name with its statistics, for the admin
// stats endpoint.
type NamedStats struct {
	Name  string `json:"name"`
	Stats Stats  `json:"stats"`
}

// Manager owns every cache in the application and provides the
// invalidation hooks handlers call after writes.
type Manager struct {
	Settings *SettingsCache
	Listings *ListingCache

	backend Cacher
}

// NewManager creates a manager over the given backend. Listings expire
// after listingTTL; settings live until invalidated.
func NewManager(source SettingsLister, backend Cacher, listingTTL time.Duration) *Manager {
	return &Manager{
		Settings: NewSettingsCache(source),
		Listings: NewListingCache(backend, listingTTL),
		backend:  backend,
	}
}

// Preload warms the settings cache. Listing caches fill on demand.
func (m *Manager) Preload(ctx context.Context) error {
	return m.Settings.Preload(ctx)
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

// ClearAll clears every cache and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) {
	m.Settings.Invalidate()
	_ = m.Listings.Clear(ctx)

	m.Settings.ResetStats()
	m.Listings.ResetStats()

	slog.Info("caches cleared")
}

// InvalidateSettings drops cached settings after a settings write.
func (m *Manager) InvalidateSettings() {
	m.Settings.Invalidate()
}

// InvalidatePeople drops cached people listings.
func (m *Manager) InvalidatePeople(ctx context.Context) {
	m.Listings.InvalidateGroup(ctx, GroupPeople)
}

// InvalidateCompanies drops cached company listings.
func (m *Manager) InvalidateCompanies(ctx context.Context) {
	m.Listings.InvalidateGroup(ctx, GroupCompanies)
}

// InvalidateEvents drops cached event listings.
func (m *Manager) InvalidateEvents(ctx context.Context) {
	m.Listings.InvalidateGroup(ctx, GroupEvents)
}

// InvalidateFeed drops cached post feed pages and tag listings, which
// embed post counts.
func (m *Manager) InvalidateFeed(ctx context.Context) {
	m.Listings.InvalidateGroup(ctx, GroupFeed)
	m.Listings.InvalidateGroup(ctx, GroupTags)
}

// InvalidateTimeline drops cached timeline listings.
func (m *Manager) InvalidateTimeline(ctx context.Context) {
	m.Listings.InvalidateGroup(ctx, GroupTimeline)
}

// InvalidateDirectory drops everything a directory sync rewrites:
// people, event and speaker listings.
func (m *Manager) InvalidateDirectory(ctx context.Context) {
	m.InvalidatePeople(ctx)
	m.InvalidateEvents(ctx)
}

// AllStats returns statistics for each cache.
func (m *Manager) AllStats() []NamedStats {
	return []NamedStats{
		{Name: "settings", Stats: m.Settings.Stats()},
		{Name: "listings", Stats: m.Listings.Stats()},
	}
}

// TotalStats aggregates statistics across all caches.
func (m *Manager) TotalStats() Stats {
	settings := m.Settings.Stats()
	listings := m.Listings.Stats()

	total := Stats{
		Hits:   settings.Hits + listings.Hits,
		Misses: settings.Misses + listings.Misses,
		Sets:   settings.Sets + listings.Sets,
		Items:  settings.Items + listings.Items,
		Size:   settings.Size + listings.Size,
	}

	requests := total.Hits + total.Misses
	if requests > 0 {
		total.HitRate = float64(total.Hits) / float64(requests) * 100
	}

	if settings.ResetAt != nil {
		total.ResetAt = settings.ResetAt
	} else if listings.ResetAt != nil {
		total.ResetAt = listings.ResetAt
	}

	return total
}
