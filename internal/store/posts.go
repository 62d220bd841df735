// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, slug, title, body, body_html, status, members_only, pinned, author_id, published_at, scheduled_at, created_at, updated_at`

func scanPost(row *sql.Row) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Title,
		&i.Body,
		&i.BodyHTML,
		&i.Status,
		&i.MembersOnly,
		&i.Pinned,
		&i.AuthorID,
		&i.PublishedAt,
		&i.ScheduledAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()
	var items []Post
	for rows.Next() {
		var i Post
		if err := rows.Scan(
			&i.ID,
			&i.Slug,
			&i.Title,
			&i.Body,
			&i.BodyHTML,
			&i.Status,
			&i.MembersOnly,
			&i.Pinned,
			&i.AuthorID,
			&i.PublishedAt,
			&i.ScheduledAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPost = `
INSERT INTO posts (slug, title, body, body_html, status, members_only, author_id, scheduled_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	Slug        string
	Title       string
	Body        string
	BodyHTML    string
	Status      string
	MembersOnly bool
	AuthorID    int64
	ScheduledAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePost inserts a new post.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Slug,
		arg.Title,
		arg.Body,
		arg.BodyHTML,
		arg.Status,
		arg.MembersOnly,
		arg.AuthorID,
		arg.ScheduledAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPost(row)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`

// GetPostBySlug fetches a post by its URL slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostBySlug, slug))
}

const listPublishedPosts = `
SELECT ` + postColumns + ` FROM posts
WHERE status = 'published' AND (? OR members_only = FALSE)
ORDER BY pinned DESC, published_at DESC
LIMIT ? OFFSET ?
`

// ListPublishedPostsParams holds the visibility flag and pagination for
// ListPublishedPosts.
type ListPublishedPostsParams struct {
	IncludeMembersOnly bool
	Limit              int64
	Offset             int64
}

// ListPublishedPosts returns the public feed, pinned posts first, then
// newest by publication time. Members-only posts appear only when
// IncludeMembersOnly is set.
func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedPosts, arg.IncludeMembersOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

const countPublishedPosts = `
SELECT COUNT(*) FROM posts
WHERE status = 'published' AND (? OR members_only = FALSE)
`

// CountPublishedPosts counts posts visible in the feed.
func (q *Queries) CountPublishedPosts(ctx context.Context, includeMembersOnly bool) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPosts, includeMembersOnly).Scan(&count)
	return count, err
}

const listPublishedPostsByTag = `
SELECT ` + postColumns + ` FROM posts
WHERE status = 'published' AND (? OR members_only = FALSE)
  AND id IN (
    SELECT pt.post_id FROM post_tags pt
    JOIN tags t ON t.id = pt.tag_id
    WHERE t.slug = ?
  )
ORDER BY pinned DESC, published_at DESC
LIMIT ? OFFSET ?
`

// ListPublishedPostsByTagParams holds the filter and pagination for
// ListPublishedPostsByTag.
type ListPublishedPostsByTagParams struct {
	IncludeMembersOnly bool
	TagSlug            string
	Limit              int64
	Offset             int64
}

// ListPublishedPostsByTag returns the feed restricted to a single tag.
func (q *Queries) ListPublishedPostsByTag(ctx context.Context, arg ListPublishedPostsByTagParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedPostsByTag,
		arg.IncludeMembersOnly,
		arg.TagSlug,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

const countPublishedPostsByTag = `
SELECT COUNT(*) FROM posts
WHERE status = 'published' AND (? OR members_only = FALSE)
  AND id IN (
    SELECT pt.post_id FROM post_tags pt
    JOIN tags t ON t.id = pt.tag_id
    WHERE t.slug = ?
  )
`

// CountPublishedPostsByTagParams holds the filter for CountPublishedPostsByTag.
type CountPublishedPostsByTagParams struct {
	IncludeMembersOnly bool
	TagSlug            string
}

// CountPublishedPostsByTag counts feed posts carrying a tag.
func (q *Queries) CountPublishedPostsByTag(ctx context.Context, arg CountPublishedPostsByTagParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPostsByTag, arg.IncludeMembersOnly, arg.TagSlug).Scan(&count)
	return count, err
}

const listPosts = `
SELECT ` + postColumns + ` FROM posts
WHERE (? = '' OR status = ?)
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListPostsParams holds the optional status filter and pagination for
// ListPosts.
type ListPostsParams struct {
	Status string
	Limit  int64
	Offset int64
}

// ListPosts returns all posts for administration, optionally filtered
// by status. An empty Status matches everything.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listPosts, arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

const countPosts = `SELECT COUNT(*) FROM posts WHERE (? = '' OR status = ?)`

// CountPosts counts posts, optionally filtered by status.
func (q *Queries) CountPosts(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts, status, status).Scan(&count)
	return count, err
}

const updatePost = `
UPDATE posts
SET title = ?, body = ?, body_html = ?, members_only = ?, scheduled_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// UpdatePostParams holds the fields for UpdatePost.
type UpdatePostParams struct {
	Title       string
	Body        string
	BodyHTML    string
	MembersOnly bool
	ScheduledAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// UpdatePost updates editable fields and returns the updated row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title,
		arg.Body,
		arg.BodyHTML,
		arg.MembersOnly,
		arg.ScheduledAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPost(row)
}

const setPostStatus = `
UPDATE posts
SET status = ?, published_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// SetPostStatusParams holds the fields for SetPostStatus.
type SetPostStatusParams struct {
	Status      string
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// SetPostStatus transitions a post between draft and published.
func (q *Queries) SetPostStatus(ctx context.Context, arg SetPostStatusParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, setPostStatus,
		arg.Status,
		arg.PublishedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPost(row)
}

const setPostPinned = `
UPDATE posts
SET pinned = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// SetPostPinnedParams holds the fields for SetPostPinned.
type SetPostPinnedParams struct {
	Pinned    bool
	UpdatedAt time.Time
	ID        int64
}

// SetPostPinned toggles the pinned flag.
func (q *Queries) SetPostPinned(ctx context.Context, arg SetPostPinnedParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, setPostPinned, arg.Pinned, arg.UpdatedAt, arg.ID)
	return scanPost(row)
}

const deletePost = `DELETE FROM posts WHERE id = ?`

// DeletePost removes a post and, via cascades, its tag links.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const listScheduledPostsDue = `
SELECT ` + postColumns + ` FROM posts
WHERE status = 'draft' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
ORDER BY scheduled_at
`

// ListScheduledPostsDue returns drafts whose scheduled publication time
// has arrived.
func (q *Queries) ListScheduledPostsDue(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listScheduledPostsDue, now)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}
