// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createTag = `
INSERT INTO tags (slug, name, created_at)
VALUES (?, ?, ?)
RETURNING id, slug, name, created_at
`

// CreateTagParams holds the fields for CreateTag.
type CreateTagParams struct {
	Slug      string
	Name      string
	CreatedAt time.Time
}

// CreateTag inserts a new tag.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	var i Tag
	err := q.db.QueryRowContext(ctx, createTag, arg.Slug, arg.Name, arg.CreatedAt).
		Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt)
	return i, err
}

const getTagByID = `SELECT id, slug, name, created_at FROM tags WHERE id = ?`

// GetTagByID fetches a tag by primary key.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	var i Tag
	err := q.db.QueryRowContext(ctx, getTagByID, id).Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt)
	return i, err
}

const getTagBySlug = `SELECT id, slug, name, created_at FROM tags WHERE slug = ?`

// GetTagBySlug fetches a tag by its URL slug.
func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	var i Tag
	err := q.db.QueryRowContext(ctx, getTagBySlug, slug).Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt)
	return i, err
}

const listTagsWithCounts = `
SELECT t.id, t.slug, t.name, t.created_at,
       COUNT(CASE WHEN p.status = 'published' THEN 1 END) AS post_count
FROM tags t
LEFT JOIN post_tags pt ON pt.tag_id = t.id
LEFT JOIN posts p ON p.id = pt.post_id
GROUP BY t.id
ORDER BY t.name COLLATE NOCASE
`

// TagWithCount is a tag together with its published post count.
type TagWithCount struct {
	ID        int64
	Slug      string
	Name      string
	CreatedAt time.Time
	PostCount int64
}

// ListTagsWithCounts returns all tags with the number of published
// posts carrying each.
func (q *Queries) ListTagsWithCounts(ctx context.Context) ([]TagWithCount, error) {
	rows, err := q.db.QueryContext(ctx, listTagsWithCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TagWithCount
	for rows.Next() {
		var i TagWithCount
		if err := rows.Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt, &i.PostCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countTags = `SELECT COUNT(*) FROM tags`

// CountTags returns the total number of tags.
func (q *Queries) CountTags(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTags).Scan(&count)
	return count, err
}

const updateTag = `
UPDATE tags
SET slug = ?, name = ?
WHERE id = ?
RETURNING id, slug, name, created_at
`

// UpdateTagParams holds the fields for UpdateTag.
type UpdateTagParams struct {
	Slug string
	Name string
	ID   int64
}

// UpdateTag renames a tag and returns the updated row.
func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	var i Tag
	err := q.db.QueryRowContext(ctx, updateTag, arg.Slug, arg.Name, arg.ID).
		Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt)
	return i, err
}

const deleteTag = `DELETE FROM tags WHERE id = ?`

// DeleteTag removes a tag and, via cascades, its post links.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTag, id)
	return err
}

const addPostTag = `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`

// AddPostTagParams holds the fields for AddPostTag.
type AddPostTagParams struct {
	PostID int64
	TagID  int64
}

// AddPostTag links a tag to a post. Duplicate links are ignored.
func (q *Queries) AddPostTag(ctx context.Context, arg AddPostTagParams) error {
	_, err := q.db.ExecContext(ctx, addPostTag, arg.PostID, arg.TagID)
	return err
}

const deletePostTags = `DELETE FROM post_tags WHERE post_id = ?`

// DeletePostTags removes all tag links from a post.
func (q *Queries) DeletePostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, deletePostTags, postID)
	return err
}

const listTagsByPost = `
SELECT t.id, t.slug, t.name, t.created_at
FROM tags t
JOIN post_tags pt ON pt.tag_id = t.id
WHERE pt.post_id = ?
ORDER BY t.name COLLATE NOCASE
`

// ListTagsByPost returns the tags attached to a post.
func (q *Queries) ListTagsByPost(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTagsByPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var i Tag
		if err := rows.Scan(&i.ID, &i.Slug, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
