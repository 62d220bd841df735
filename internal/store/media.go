// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const mediaColumns = `id, uuid, storage_key, filename, mime_type, size, width, height, alt_text, uploaded_by, created_at`

func scanMedia(row *sql.Row) (Media, error) {
	var i Media
	err := row.Scan(
		&i.ID,
		&i.UUID,
		&i.StorageKey,
		&i.Filename,
		&i.MimeType,
		&i.Size,
		&i.Width,
		&i.Height,
		&i.AltText,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createMedia = `
INSERT INTO media (uuid, storage_key, filename, mime_type, size, width, height, alt_text, uploaded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mediaColumns

// CreateMediaParams holds the fields for CreateMedia.
type CreateMediaParams struct {
	UUID       string
	StorageKey string
	Filename   string
	MimeType   string
	Size       int64
	Width      sql.NullInt64
	Height     sql.NullInt64
	AltText    string
	UploadedBy sql.NullInt64
	CreatedAt  time.Time
}

// CreateMedia records an uploaded file.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Media, error) {
	row := q.db.QueryRowContext(ctx, createMedia,
		arg.UUID,
		arg.StorageKey,
		arg.Filename,
		arg.MimeType,
		arg.Size,
		arg.Width,
		arg.Height,
		arg.AltText,
		arg.UploadedBy,
		arg.CreatedAt,
	)
	return scanMedia(row)
}

const getMediaByID = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

// GetMediaByID fetches a media record by primary key.
func (q *Queries) GetMediaByID(ctx context.Context, id int64) (Media, error) {
	return scanMedia(q.db.QueryRowContext(ctx, getMediaByID, id))
}

const getMediaByUUID = `SELECT ` + mediaColumns + ` FROM media WHERE uuid = ?`

// GetMediaByUUID fetches a media record by its public identifier.
func (q *Queries) GetMediaByUUID(ctx context.Context, uuid string) (Media, error) {
	return scanMedia(q.db.QueryRowContext(ctx, getMediaByUUID, uuid))
}

const listMedia = `
SELECT ` + mediaColumns + ` FROM media
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListMediaParams holds pagination for ListMedia.
type ListMediaParams struct {
	Limit  int64
	Offset int64
}

// ListMedia returns a page of uploads, newest first.
func (q *Queries) ListMedia(ctx context.Context, arg ListMediaParams) ([]Media, error) {
	rows, err := q.db.QueryContext(ctx, listMedia, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Media
	for rows.Next() {
		var i Media
		if err := rows.Scan(
			&i.ID,
			&i.UUID,
			&i.StorageKey,
			&i.Filename,
			&i.MimeType,
			&i.Size,
			&i.Width,
			&i.Height,
			&i.AltText,
			&i.UploadedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countMedia = `SELECT COUNT(*) FROM media`

// CountMedia returns the total number of uploads.
func (q *Queries) CountMedia(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMedia).Scan(&count)
	return count, err
}

const listMediaByUser = `
SELECT ` + mediaColumns + ` FROM media
WHERE uploaded_by = ?
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListMediaByUserParams holds the owner filter and pagination for
// ListMediaByUser.
type ListMediaByUserParams struct {
	UploadedBy int64
	Limit      int64
	Offset     int64
}

// ListMediaByUser returns a page of one user's uploads, newest first.
func (q *Queries) ListMediaByUser(ctx context.Context, arg ListMediaByUserParams) ([]Media, error) {
	rows, err := q.db.QueryContext(ctx, listMediaByUser, arg.UploadedBy, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Media
	for rows.Next() {
		var i Media
		if err := rows.Scan(
			&i.ID,
			&i.UUID,
			&i.StorageKey,
			&i.Filename,
			&i.MimeType,
			&i.Size,
			&i.Width,
			&i.Height,
			&i.AltText,
			&i.UploadedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countMediaByUser = `SELECT COUNT(*) FROM media WHERE uploaded_by = ?`

// CountMediaByUser returns the number of uploads owned by a user.
func (q *Queries) CountMediaByUser(ctx context.Context, uploadedBy int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMediaByUser, uploadedBy).Scan(&count)
	return count, err
}

const updateMediaAltText = `UPDATE media SET alt_text = ? WHERE id = ?`

// UpdateMediaAltTextParams holds the fields for UpdateMediaAltText.
type UpdateMediaAltTextParams struct {
	AltText string
	ID      int64
}

// UpdateMediaAltText sets the accessibility description of an upload.
func (q *Queries) UpdateMediaAltText(ctx context.Context, arg UpdateMediaAltTextParams) error {
	_, err := q.db.ExecContext(ctx, updateMediaAltText, arg.AltText, arg.ID)
	return err
}

const deleteMedia = `DELETE FROM media WHERE id = ?`

// DeleteMedia removes a media record and, via cascades, its variants.
func (q *Queries) DeleteMedia(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMedia, id)
	return err
}

const createMediaVariant = `
INSERT INTO media_variants (media_id, name, storage_key, width, height, size)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, media_id, name, storage_key, width, height, size
`

// CreateMediaVariantParams holds the fields for CreateMediaVariant.
type CreateMediaVariantParams struct {
	MediaID    int64
	Name       string
	StorageKey string
	Width      int64
	Height     int64
	Size       int64
}

// CreateMediaVariant records a resized rendition of an upload.
func (q *Queries) CreateMediaVariant(ctx context.Context, arg CreateMediaVariantParams) (MediaVariant, error) {
	var i MediaVariant
	err := q.db.QueryRowContext(ctx, createMediaVariant,
		arg.MediaID,
		arg.Name,
		arg.StorageKey,
		arg.Width,
		arg.Height,
		arg.Size,
	).Scan(&i.ID, &i.MediaID, &i.Name, &i.StorageKey, &i.Width, &i.Height, &i.Size)
	return i, err
}

const listMediaVariants = `
SELECT id, media_id, name, storage_key, width, height, size
FROM media_variants
WHERE media_id = ?
ORDER BY name
`

// ListMediaVariants returns the renditions generated for an upload.
func (q *Queries) ListMediaVariants(ctx context.Context, mediaID int64) ([]MediaVariant, error) {
	rows, err := q.db.QueryContext(ctx, listMediaVariants, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MediaVariant
	for rows.Next() {
		var i MediaVariant
		if err := rows.Scan(&i.ID, &i.MediaID, &i.Name, &i.StorageKey, &i.Width, &i.Height, &i.Size); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getMediaVariant = `
SELECT id, media_id, name, storage_key, width, height, size
FROM media_variants
WHERE media_id = ? AND name = ?
`

// GetMediaVariantParams holds the fields for GetMediaVariant.
type GetMediaVariantParams struct {
	MediaID int64
	Name    string
}

// GetMediaVariant fetches a single named rendition of an upload.
func (q *Queries) GetMediaVariant(ctx context.Context, arg GetMediaVariantParams) (MediaVariant, error) {
	var i MediaVariant
	err := q.db.QueryRowContext(ctx, getMediaVariant, arg.MediaID, arg.Name).
		Scan(&i.ID, &i.MediaID, &i.Name, &i.StorageKey, &i.Width, &i.Height, &i.Size)
	return i, err
}
