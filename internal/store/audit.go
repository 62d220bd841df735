// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createAuditEvent = `
INSERT INTO audit_events (created_at, level, category, message, user_id, metadata, ip_address)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateAuditEventParams holds the fields for CreateAuditEvent.
type CreateAuditEventParams struct {
	CreatedAt time.Time
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  sql.NullString
	IPAddress sql.NullString
}

// CreateAuditEvent appends an entry to the audit log.
func (q *Queries) CreateAuditEvent(ctx context.Context, arg CreateAuditEventParams) error {
	_, err := q.db.ExecContext(ctx, createAuditEvent,
		arg.CreatedAt,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.Metadata,
		arg.IPAddress,
	)
	return err
}

const listAuditEvents = `
SELECT id, created_at, level, category, message, user_id, metadata, ip_address
FROM audit_events
WHERE (? = '' OR level = ?)
  AND (? = '' OR category = ?)
  AND (? = 0 OR user_id = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

// ListAuditEventsParams holds the optional filters and pagination for
// ListAuditEvents. Zero values match everything.
type ListAuditEventsParams struct {
	Level    string
	Category string
	UserID   int64
	Limit    int64
	Offset   int64
}

// ListAuditEvents returns a page of audit entries, newest first.
func (q *Queries) ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditEvent, error) {
	rows, err := q.db.QueryContext(ctx, listAuditEvents,
		arg.Level, arg.Level,
		arg.Category, arg.Category,
		arg.UserID, arg.UserID,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditEvent
	for rows.Next() {
		var i AuditEvent
		if err := rows.Scan(
			&i.ID,
			&i.CreatedAt,
			&i.Level,
			&i.Category,
			&i.Message,
			&i.UserID,
			&i.Metadata,
			&i.IPAddress,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countAuditEvents = `
SELECT COUNT(*) FROM audit_events
WHERE (? = '' OR level = ?)
  AND (? = '' OR category = ?)
  AND (? = 0 OR user_id = ?)
`

// CountAuditEventsParams holds the optional filters for CountAuditEvents.
type CountAuditEventsParams struct {
	Level    string
	Category string
	UserID   int64
}

// CountAuditEvents counts audit entries matching the filters.
func (q *Queries) CountAuditEvents(ctx context.Context, arg CountAuditEventsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAuditEvents,
		arg.Level, arg.Level,
		arg.Category, arg.Category,
		arg.UserID, arg.UserID,
	).Scan(&count)
	return count, err
}

const deleteAuditEventsBefore = `DELETE FROM audit_events WHERE created_at < ?`

// DeleteAuditEventsBefore removes entries older than the cutoff and
// returns the number deleted.
func (q *Queries) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAuditEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
