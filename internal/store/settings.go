// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getSetting = `SELECT key, value, updated_at FROM settings WHERE key = ?`

// GetSetting fetches a single setting by key.
func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var i Setting
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const listSettings = `SELECT key, value, updated_at FROM settings ORDER BY key`

// ListSettings returns all settings ordered by key.
func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.Key, &i.Value, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertSetting = `
INSERT INTO settings (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// UpsertSettingParams holds the fields for UpsertSetting.
type UpsertSettingParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// UpsertSetting writes a setting, creating it when missing.
func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}
