// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const timelineColumns = `id, title, description, happened_on, position, created_at, updated_at`

const createTimelineEvent = `
INSERT INTO timeline_events (title, description, happened_on, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + timelineColumns

// CreateTimelineEventParams holds the fields for CreateTimelineEvent.
type CreateTimelineEventParams struct {
	Title       string
	Description string
	HappenedOn  time.Time
	Position    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTimelineEvent inserts a new milestone.
func (q *Queries) CreateTimelineEvent(ctx context.Context, arg CreateTimelineEventParams) (TimelineEvent, error) {
	var i TimelineEvent
	err := q.db.QueryRowContext(ctx, createTimelineEvent,
		arg.Title,
		arg.Description,
		arg.HappenedOn,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	).Scan(&i.ID, &i.Title, &i.Description, &i.HappenedOn, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getTimelineEventByID = `SELECT ` + timelineColumns + ` FROM timeline_events WHERE id = ?`

// GetTimelineEventByID fetches a milestone by primary key.
func (q *Queries) GetTimelineEventByID(ctx context.Context, id int64) (TimelineEvent, error) {
	var i TimelineEvent
	err := q.db.QueryRowContext(ctx, getTimelineEventByID, id).
		Scan(&i.ID, &i.Title, &i.Description, &i.HappenedOn, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listTimelineEvents = `
SELECT ` + timelineColumns + ` FROM timeline_events
ORDER BY position, happened_on
`

// ListTimelineEvents returns all milestones in display order.
func (q *Queries) ListTimelineEvents(ctx context.Context) ([]TimelineEvent, error) {
	rows, err := q.db.QueryContext(ctx, listTimelineEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TimelineEvent
	for rows.Next() {
		var i TimelineEvent
		if err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.HappenedOn, &i.Position, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTimelineEvent = `
UPDATE timeline_events
SET title = ?, description = ?, happened_on = ?, updated_at = ?
WHERE id = ?
RETURNING ` + timelineColumns

// UpdateTimelineEventParams holds the fields for UpdateTimelineEvent.
type UpdateTimelineEventParams struct {
	Title       string
	Description string
	HappenedOn  time.Time
	UpdatedAt   time.Time
	ID          int64
}

// UpdateTimelineEvent updates milestone fields and returns the updated row.
func (q *Queries) UpdateTimelineEvent(ctx context.Context, arg UpdateTimelineEventParams) (TimelineEvent, error) {
	var i TimelineEvent
	err := q.db.QueryRowContext(ctx, updateTimelineEvent,
		arg.Title,
		arg.Description,
		arg.HappenedOn,
		arg.UpdatedAt,
		arg.ID,
	).Scan(&i.ID, &i.Title, &i.Description, &i.HappenedOn, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateTimelineEventPosition = `UPDATE timeline_events SET position = ?, updated_at = ? WHERE id = ?`

// UpdateTimelineEventPositionParams holds the fields for
// UpdateTimelineEventPosition.
type UpdateTimelineEventPositionParams struct {
	Position  int64
	UpdatedAt time.Time
	ID        int64
}

// UpdateTimelineEventPosition moves a milestone within the display order.
func (q *Queries) UpdateTimelineEventPosition(ctx context.Context, arg UpdateTimelineEventPositionParams) error {
	_, err := q.db.ExecContext(ctx, updateTimelineEventPosition, arg.Position, arg.UpdatedAt, arg.ID)
	return err
}

const deleteTimelineEvent = `DELETE FROM timeline_events WHERE id = ?`

// DeleteTimelineEvent removes a milestone.
func (q *Queries) DeleteTimelineEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTimelineEvent, id)
	return err
}

const getNextTimelinePosition = `SELECT COALESCE(MAX(position) + 1, 0) FROM timeline_events`

// GetNextTimelinePosition returns the position for appending a milestone.
func (q *Queries) GetNextTimelinePosition(ctx context.Context) (int64, error) {
	var pos int64
	err := q.db.QueryRowContext(ctx, getNextTimelinePosition).Scan(&pos)
	return pos, err
}
