// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/odir-go/internal/luma"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// LumaSource imports calendar events and their guests from the Luma
// API. It is the default sync source.
type LumaSource struct {
	client *luma.Client
}

// NewLumaSource creates the source over an API client.
func NewLumaSource(client *luma.Client) *LumaSource {
	return &LumaSource{client: client}
}

// Name implements Source.
func (s *LumaSource) Name() string { return "luma" }

// Description implements Source.
func (s *LumaSource) Description() string {
	return "Events and approved guests from the Luma calendar"
}

// CheckConfig implements Source.
func (s *LumaSource) CheckConfig() error {
	if !s.client.Enabled() {
		return errors.New("luma api key not configured")
	}
	return nil
}

// Import upserts every calendar event, then fetches each event's
// guests and upserts approved guests as people. Guests already
// registered as users are linked by email. A failure mid-loop leaves
// what the loop reached and reports the error.
func (s *LumaSource) Import(ctx context.Context, q *store.Queries, progress Progress) (*Result, error) {
	progress("events", 0, 0, "fetching events")
	events, err := s.client.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	result := &Result{}
	seen := make(map[string]bool)
	total := len(events)

	for i, ev := range events {
		now := time.Now().UTC()
		if _, err := q.UpsertEventByLumaID(ctx, store.UpsertEventByLumaIDParams{
			LumaID:      util.NullStringFromValue(ev.APIID),
			Slug:        util.SlugifyWithID(ev.Name, ev.APIID, "event"),
			Name:        ev.Name,
			Description: util.NullStringFromValue(ev.Description),
			StartsAt:    ev.StartAt,
			EndsAt:      nullTimeFromTime(ev.EndAt),
			URL:         util.NullStringFromValue(ev.URL),
			CoverURL:    util.NullStringFromValue(ev.CoverURL),
			Location:    util.NullStringFromValue(ev.Geo.Location()),
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return nil, fmt.Errorf("upsert event %s: %w", ev.APIID, err)
		}
		result.Events++
		progress("events", i+1, total, ev.Name)

		guests, err := s.client.GetGuests(ctx, ev.APIID)
		if err != nil {
			return nil, fmt.Errorf("fetch guests for %s: %w", ev.APIID, err)
		}
		for _, g := range guests {
			imported, err := s.importGuest(ctx, q, g, seen)
			if err != nil {
				return nil, fmt.Errorf("import guest %s: %w", g.APIID, err)
			}
			if imported {
				result.People++
			}
		}
		progress("guests", i+1, total, fmt.Sprintf("%d guests: %s", len(guests), ev.Name))
	}

	return result, nil
}

// importGuest upserts one guest as a person. Guests repeat across
// events, so each distinct guest counts once; only approved guests are
// listed in the directory.
func (s *LumaSource) importGuest(ctx context.Context, q *store.Queries, g luma.Guest, seen map[string]bool) (bool, error) {
	if g.APIID == "" || seen[g.APIID] {
		return false, nil
	}
	if g.ApprovalStatus != "approved" {
		return false, nil
	}

	email := strings.ToLower(strings.TrimSpace(g.Email))
	now := time.Now().UTC()
	if _, err := q.UpsertPersonByLumaID(ctx, store.UpsertPersonByLumaIDParams{
		LumaID:    util.NullStringFromValue(g.APIID),
		Slug:      util.SlugifyWithID(g.Name, g.APIID, "person"),
		Name:      g.Name,
		Email:     util.NullStringFromValue(email),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return false, err
	}
	seen[g.APIID] = true

	if email == "" {
		return true, nil
	}
	if err := linkUserByEmail(ctx, q, email, now); err != nil {
		return false, err
	}
	return true, nil
}

// linkUserByEmail attaches unclaimed directory profiles to the
// registered user with the same email. No matching user is not an
// error.
func linkUserByEmail(ctx context.Context, q *store.Queries, email string, now time.Time) error {
	user, err := q.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = q.LinkPersonToUser(ctx, store.LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: now,
		Email:     email,
	})
	return err
}

// nullTimeFromTime wraps a time, mapping the zero value to NULL.
func nullTimeFromTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
