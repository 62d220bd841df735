// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/geoip"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/service"
	"github.com/olegiv/odir-go/internal/store"
)

// Scheduler handles recurring tasks like publishing scheduled posts.
type Scheduler struct {
	db        *sql.DB
	cron      *cron.Cron
	audit     *service.AuditService
	geo       *geoip.Resolver
	cache     *cache.Manager
	retention time.Duration
	logger    *slog.Logger
}

// New creates a new scheduler instance. retention bounds the age of kept
// audit events; zero or negative disables pruning.
func New(db *sql.DB, audit *service.AuditService, geo *geoip.Resolver, cacheManager *cache.Manager, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:        db,
		cron:      cron.New(),
		audit:     audit,
		geo:       geo,
		cache:     cacheManager,
		retention: retention,
		logger:    logger,
	}
}

// Start registers the jobs and begins the schedule.
func (s *Scheduler) Start() error {
	// Run every minute
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.processScheduledPosts(); err != nil {
			s.logger.Error("failed to process scheduled posts", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Daily at 03:00
	_, err = s.cron.AddFunc("0 3 * * *", func() {
		if err := s.pruneAuditEvents(); err != nil {
			s.logger.Error("failed to prune audit events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Daily at 04:00, picks up replaced GeoIP database files
	_, err = s.cron.AddFunc("0 4 * * *", func() {
		if err := s.geo.Reload(); err != nil {
			s.logger.Error("failed to reload geoip database", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// processScheduledPosts publishes drafts whose scheduled time has passed.
func (s *Scheduler) processScheduledPosts() error {
	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	posts, err := queries.ListScheduledPostsDue(ctx, now)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		return nil
	}

	s.logger.Info("processing scheduled posts", "count", len(posts))

	published := 0
	for _, post := range posts {
		if err := s.publishPost(ctx, queries, post, now); err != nil {
			s.logger.Error("failed to publish scheduled post",
				"post_id", post.ID,
				"post_title", post.Title,
				"error", err,
			)
			continue
		}
		published++

		s.logger.Info("published scheduled post",
			"post_id", post.ID,
			"post_title", post.Title,
			"scheduled_at", post.ScheduledAt.Time,
		)
	}

	if published > 0 {
		s.cache.InvalidateFeed(ctx)
	}

	return nil
}

// publishPost publishes a single scheduled post and records an audit
// event. A post that was published and unpublished before keeps its
// original published_at.
func (s *Scheduler) publishPost(ctx context.Context, queries *store.Queries, post store.Post, now time.Time) error {
	publishedAt := sql.NullTime{Time: now, Valid: true}
	if post.PublishedAt.Valid {
		publishedAt = post.PublishedAt
	}

	_, err := queries.SetPostStatus(ctx, store.SetPostStatusParams{
		Status:      model.PostStatusPublished,
		PublishedAt: publishedAt,
		UpdatedAt:   now,
		ID:          post.ID,
	})
	if err != nil {
		return err
	}

	metadata := map[string]any{
		"post_id":      post.ID,
		"post_title":   post.Title,
		"post_slug":    post.Slug,
		"scheduled_at": post.ScheduledAt.Time.Format(time.RFC3339),
		"published_at": publishedAt.Time.Format(time.RFC3339),
	}
	// System action, no user
	_ = s.audit.LogInfo(ctx, model.AuditCategoryPost, "post published on schedule: "+post.Title, nil, "", metadata)

	return nil
}

// pruneAuditEvents deletes audit events older than the retention period.
func (s *Scheduler) pruneAuditEvents() error {
	if s.retention <= 0 {
		return nil
	}

	deleted, err := s.audit.DeleteOldEvents(context.Background(), s.retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned old audit events", "deleted", deleted)
	}
	return nil
}
