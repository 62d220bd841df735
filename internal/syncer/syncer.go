// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package syncer rebuilds the community directory from an external
// source. A run clears the directory tables, re-imports events and
// people through a Source, and invalidates the listing caches. Only
// one run executes at a time.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/store"
)

// ErrRunning is returned when a sync is requested while another run
// holds the lock.
var ErrRunning = errors.New("sync already running")

// Progress receives progress updates from a running import. Callers
// that do not consume progress pass nil.
type Progress func(stage string, current, total int, message string)

// Result counts what an import wrote.
type Result struct {
	Events    int `json:"events"`
	People    int `json:"people"`
	Companies int `json:"companies"`
}

// Total returns the imported row count across all entity types.
func (r *Result) Total() int {
	return r.Events + r.People + r.Companies
}

// Source imports directory data from one upstream system.
type Source interface {
	// Name is the identifier used to select the source.
	Name() string
	// Description says what the source imports.
	Description() string
	// CheckConfig reports whether the source has the configuration it
	// needs to run.
	CheckConfig() error
	// Import fetches upstream data and writes directory rows. The
	// directory tables have been cleared before the call.
	Import(ctx context.Context, q *store.Queries, progress Progress) (*Result, error)
}

// Runner executes sync jobs one at a time against a registry of
// sources.
type Runner struct {
	queries *store.Queries
	cache   *cache.Manager

	// runMu is held for the duration of a run.
	runMu sync.Mutex

	sourcesMu sync.RWMutex
	sources   map[string]Source
}

// NewRunner creates a Runner with no sources registered.
func NewRunner(queries *store.Queries, cacheManager *cache.Manager) *Runner {
	return &Runner{
		queries: queries,
		cache:   cacheManager,
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry.
func (r *Runner) Register(s Source) {
	r.sourcesMu.Lock()
	defer r.sourcesMu.Unlock()
	r.sources[s.Name()] = s
}

// Get returns a source by name.
func (r *Runner) Get(name string) (Source, bool) {
	r.sourcesMu.RLock()
	defer r.sourcesMu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// Sources returns all registered sources sorted by name.
func (r *Runner) Sources() []Source {
	r.sourcesMu.RLock()
	defer r.sourcesMu.RUnlock()

	result := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Running reports whether a sync currently holds the lock.
func (r *Runner) Running() bool {
	if r.runMu.TryLock() {
		r.runMu.Unlock()
		return false
	}
	return true
}

// Run clears the directory tables, imports from the named source, and
// invalidates the listing caches. A second call while one is running
// returns ErrRunning. Panics inside the import are recovered and
// reported as errors so every run has an outcome.
func (r *Runner) Run(ctx context.Context, sourceName string, progress Progress) (result *Result, err error) {
	source, ok := r.Get(sourceName)
	if !ok {
		return nil, fmt.Errorf("unknown sync source %q", sourceName)
	}
	if err := source.CheckConfig(); err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name(), err)
	}

	if !r.runMu.TryLock() {
		return nil, ErrRunning
	}
	defer r.runMu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("sync panicked", "source", sourceName, "panic", rec)
			result = nil
			err = fmt.Errorf("sync panicked: %v", rec)
		}
	}()

	if progress == nil {
		progress = func(string, int, int, string) {}
	}

	start := time.Now()
	slog.Info("sync started", "source", sourceName)

	progress("clear", 0, 0, "clearing directory tables")
	if err := r.clearDirectory(ctx); err != nil {
		return nil, fmt.Errorf("clear directory tables: %w", err)
	}

	result, err = source.Import(ctx, r.queries, progress)
	if err != nil {
		return nil, err
	}

	r.cache.InvalidateDirectory(ctx)

	slog.Info("sync complete",
		"source", sourceName,
		"events", result.Events,
		"people", result.People,
		"companies", result.Companies,
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// clearDirectory empties the synced tables. Deleting events removes
// speakers and presentations through their cascading foreign keys.
func (r *Runner) clearDirectory(ctx context.Context) error {
	if err := r.queries.DeleteAllPeople(ctx); err != nil {
		return err
	}
	return r.queries.DeleteAllEvents(ctx)
}
