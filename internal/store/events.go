// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventColumns = `id, luma_id, slug, name, description, starts_at, ends_at, url, cover_url, location, created_at, updated_at`

func scanEvent(row *sql.Row) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.LumaID,
		&i.Slug,
		&i.Name,
		&i.Description,
		&i.StartsAt,
		&i.EndsAt,
		&i.URL,
		&i.CoverURL,
		&i.Location,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(
			&i.ID,
			&i.LumaID,
			&i.Slug,
			&i.Name,
			&i.Description,
			&i.StartsAt,
			&i.EndsAt,
			&i.URL,
			&i.CoverURL,
			&i.Location,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createEvent = `
INSERT INTO events (luma_id, slug, name, description, starts_at, ends_at, url, cover_url, location, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	LumaID      sql.NullString
	Slug        string
	Name        string
	Description sql.NullString
	StartsAt    time.Time
	EndsAt      sql.NullTime
	URL         sql.NullString
	CoverURL    sql.NullString
	Location    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateEvent inserts a new event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.LumaID,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.StartsAt,
		arg.EndsAt,
		arg.URL,
		arg.CoverURL,
		arg.Location,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEvent(row)
}

// Like people, synced events keep their original slug on conflict.
const upsertEventByLumaID = `
INSERT INTO events (luma_id, slug, name, description, starts_at, ends_at, url, cover_url, location, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (luma_id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    starts_at = excluded.starts_at,
    ends_at = excluded.ends_at,
    url = excluded.url,
    cover_url = excluded.cover_url,
    location = excluded.location,
    updated_at = excluded.updated_at
RETURNING ` + eventColumns

// UpsertEventByLumaIDParams holds the fields for UpsertEventByLumaID.
type UpsertEventByLumaIDParams struct {
	LumaID      sql.NullString
	Slug        string
	Name        string
	Description sql.NullString
	StartsAt    time.Time
	EndsAt      sql.NullTime
	URL         sql.NullString
	CoverURL    sql.NullString
	Location    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertEventByLumaID inserts or refreshes a synced event keyed by its
// upstream id.
func (q *Queries) UpsertEventByLumaID(ctx context.Context, arg UpsertEventByLumaIDParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, upsertEventByLumaID,
		arg.LumaID,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.StartsAt,
		arg.EndsAt,
		arg.URL,
		arg.CoverURL,
		arg.Location,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEvent(row)
}

const getEventByID = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

// GetEventByID fetches an event by primary key.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEventByID, id))
}

const getEventBySlug = `SELECT ` + eventColumns + ` FROM events WHERE slug = ?`

// GetEventBySlug fetches an event by its URL slug.
func (q *Queries) GetEventBySlug(ctx context.Context, slug string) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEventBySlug, slug))
}

const listEvents = `
SELECT ` + eventColumns + ` FROM events
ORDER BY starts_at DESC
LIMIT ? OFFSET ?
`

// ListEventsParams holds pagination for ListEvents.
type ListEventsParams struct {
	Limit  int64
	Offset int64
}

// ListEvents returns a page of all events, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

const countEvents = `SELECT COUNT(*) FROM events`

// CountEvents returns the total number of events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&count)
	return count, err
}

const listUpcomingEvents = `
SELECT ` + eventColumns + ` FROM events
WHERE starts_at >= ?
ORDER BY starts_at ASC
LIMIT ? OFFSET ?
`

// ListUpcomingEventsParams holds the cutoff and pagination for
// ListUpcomingEvents.
type ListUpcomingEventsParams struct {
	Now    time.Time
	Limit  int64
	Offset int64
}

// ListUpcomingEvents returns future events, soonest first.
func (q *Queries) ListUpcomingEvents(ctx context.Context, arg ListUpcomingEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listUpcomingEvents, arg.Now, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

const countUpcomingEvents = `SELECT COUNT(*) FROM events WHERE starts_at >= ?`

// CountUpcomingEvents counts future events.
func (q *Queries) CountUpcomingEvents(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUpcomingEvents, now).Scan(&count)
	return count, err
}

const listPastEvents = `
SELECT ` + eventColumns + ` FROM events
WHERE starts_at < ?
ORDER BY starts_at DESC
LIMIT ? OFFSET ?
`

// ListPastEventsParams holds the cutoff and pagination for ListPastEvents.
type ListPastEventsParams struct {
	Now    time.Time
	Limit  int64
	Offset int64
}

// ListPastEvents returns past events, most recent first.
func (q *Queries) ListPastEvents(ctx context.Context, arg ListPastEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listPastEvents, arg.Now, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

const countPastEvents = `SELECT COUNT(*) FROM events WHERE starts_at < ?`

// CountPastEvents counts past events.
func (q *Queries) CountPastEvents(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPastEvents, now).Scan(&count)
	return count, err
}

const updateEvent = `
UPDATE events
SET name = ?, description = ?, starts_at = ?, ends_at = ?, url = ?, cover_url = ?, location = ?, updated_at = ?
WHERE id = ?
RETURNING ` + eventColumns

// UpdateEventParams holds the fields for UpdateEvent.
type UpdateEventParams struct {
	Name        string
	Description sql.NullString
	StartsAt    time.Time
	EndsAt      sql.NullTime
	URL         sql.NullString
	CoverURL    sql.NullString
	Location    sql.NullString
	UpdatedAt   time.Time
	ID          int64
}

// UpdateEvent updates event fields and returns the updated row.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, updateEvent,
		arg.Name,
		arg.Description,
		arg.StartsAt,
		arg.EndsAt,
		arg.URL,
		arg.CoverURL,
		arg.Location,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEvent(row)
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

// DeleteEvent removes an event and, via cascades, its speakers and
// presentations.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteEvent, id)
	return err
}

const deleteAllEvents = `DELETE FROM events`

// DeleteAllEvents clears all events ahead of a full resync.
func (q *Queries) DeleteAllEvents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllEvents)
	return err
}
