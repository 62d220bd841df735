// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/markdown"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// PostResponse is the API representation of a bulletin post.
type PostResponse struct {
	ID          int64        `json:"id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	BodyHTML    string       `json:"body_html"`
	Status      string       `json:"status"`
	MembersOnly bool         `json:"members_only"`
	Pinned      bool         `json:"pinned"`
	AuthorID    int64        `json:"author_id"`
	Tags        []TagSummary `json:"tags"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	ScheduledAt *time.Time   `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TagSummary is the compact tag shape embedded in post responses.
type TagSummary struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CreatePostRequest is the request body for creating a post. Body is
// markdown; the rendered HTML is produced server-side.
type CreatePostRequest struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	MembersOnly bool       `json:"members_only"`
	Pinned      bool       `json:"pinned"`
	Tags        []string   `json:"tags"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// UpdatePostRequest is the request body for partially updating a post.
// Nil fields are left unchanged; a non-nil Tags replaces the whole set.
type UpdatePostRequest struct {
	Title       *string    `json:"title"`
	Body        *string    `json:"body"`
	Status      *string    `json:"status"`
	MembersOnly *bool      `json:"members_only"`
	Pinned      *bool      `json:"pinned"`
	Tags        []string   `json:"tags"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func storePostToResponse(p store.Post, tags []store.Tag) PostResponse {
	resp := PostResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Body:        p.Body,
		BodyHTML:    p.BodyHTML,
		Status:      p.Status,
		MembersOnly: p.MembersOnly,
		Pinned:      p.Pinned,
		AuthorID:    p.AuthorID,
		Tags:        make([]TagSummary, 0, len(tags)),
	}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, TagSummary{Slug: t.Slug, Name: t.Name})
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		resp.PublishedAt = &t
	}
	if p.ScheduledAt.Valid {
		t := p.ScheduledAt.Time
		resp.ScheduledAt = &t
	}
	resp.CreatedAt = p.CreatedAt
	resp.UpdatedAt = p.UpdatedAt
	return resp
}

func (h *Handler) postResponse(ctx context.Context, p store.Post) (PostResponse, error) {
	tags, err := h.queries.ListTagsByPost(ctx, p.ID)
	if err != nil {
		return PostResponse{}, err
	}
	return storePostToResponse(p, tags), nil
}

func (h *Handler) postResponses(ctx context.Context, posts []store.Post) ([]PostResponse, error) {
	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp, err := h.postResponse(ctx, p)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ListPosts handles GET /api/v1/posts. The public feed contains published
// posts only, pinned first and newest after. Members additionally see
// members-only posts. Admins may pass ?status=draft|published|all to list
// everything by creation date instead.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)
	offset := (page - 1) * perPage

	user := middleware.GetUser(r)
	if user != nil && user.IsAdmin && r.URL.Query().Has("status") {
		h.listPostsAdmin(w, r, page, perPage)
		return
	}

	tagSlug := strings.TrimSpace(r.URL.Query().Get("tag"))
	includeMembersOnly := user != nil

	key := cache.Key(cache.GroupFeed, "posts", strconv.Itoa(page), strconv.Itoa(perPage), tagSlug)
	if h.serveCachedListing(w, r, key) {
		return
	}

	var (
		posts []store.Post
		total int64
		err   error
	)
	if tagSlug != "" {
		posts, err = h.queries.ListPublishedPostsByTag(ctx, store.ListPublishedPostsByTagParams{
			IncludeMembersOnly: includeMembersOnly,
			TagSlug:            tagSlug,
			Limit:              int64(perPage),
			Offset:             int64(offset),
		})
		if err == nil {
			total, err = h.queries.CountPublishedPostsByTag(ctx, store.CountPublishedPostsByTagParams{
				IncludeMembersOnly: includeMembersOnly,
				TagSlug:            tagSlug,
			})
		}
	} else {
		posts, err = h.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{
			IncludeMembersOnly: includeMembersOnly,
			Limit:              int64(perPage),
			Offset:             int64(offset),
		})
		if err == nil {
			total, err = h.queries.CountPublishedPosts(ctx, includeMembersOnly)
		}
	}
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	responses, err := h.postResponses(ctx, posts)
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	h.writeListing(w, r, key, Response{
		Data: responses,
		Meta: &Meta{
			Total:   total,
			Page:    page,
			PerPage: perPage,
			Pages:   handler.CalculateTotalPages(int(total), perPage),
		},
	})
}

func (h *Handler) listPostsAdmin(w http.ResponseWriter, r *http.Request, page, perPage int) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if status == "all" {
		status = ""
	}
	if status != "" && !model.IsValidPostStatus(status) {
		WriteValidationError(w, map[string]string{"status": "Status must be draft, published or all"})
		return
	}

	posts, err := h.queries.ListPosts(ctx, store.ListPostsParams{
		Status: status,
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}
	total, err := h.queries.CountPosts(ctx, status)
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	responses, err := h.postResponses(ctx, posts)
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(int(total), perPage),
	})
}

// GetPost handles GET /api/v1/posts/{slug}. Drafts are invisible to
// non-admins and members-only posts are withheld from anonymous readers.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to get post")
		}
		return
	}

	user := middleware.GetUser(r)
	isAdmin := user != nil && user.IsAdmin
	if post.Status != model.PostStatusPublished && !isAdmin {
		WriteNotFound(w, "Post not found")
		return
	}
	if post.MembersOnly && user == nil {
		WriteForbidden(w, "This post is for members only")
		return
	}

	resp, err := h.postResponse(ctx, post)
	if err != nil {
		WriteInternalError(w, "Failed to get post")
		return
	}
	WriteSuccess(w, resp, nil)
}

// CreatePost handles POST /api/v1/posts (admin only).
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Status == "" {
		req.Status = model.PostStatusDraft
	}

	validationErrors := make(map[string]string)
	if req.Title == "" {
		validationErrors["title"] = "Title is required"
	}
	if !model.IsValidPostStatus(req.Status) {
		validationErrors["status"] = "Status must be draft or published"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	slug := util.SlugifyWithID(req.Title, "", "post")
	if !checkSlugUnique(w, slugInUse(func() (store.Post, error) {
		return h.queries.GetPostBySlug(ctx, slug)
	})) {
		return
	}

	bodyHTML, err := markdown.ToHTML(req.Body)
	if err != nil {
		WriteInternalError(w, "Failed to render post body")
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		WriteInternalError(w, "Failed to create post")
		return
	}
	defer func() { _ = tx.Rollback() }()
	qtx := h.queries.WithTx(tx)

	now := time.Now()
	post, err := qtx.CreatePost(ctx, store.CreatePostParams{
		Slug:        slug,
		Title:       req.Title,
		Body:        req.Body,
		BodyHTML:    bodyHTML,
		Status:      model.PostStatusDraft,
		MembersOnly: req.MembersOnly,
		AuthorID:    user.ID,
		ScheduledAt: util.NullTimeFromPtr(req.ScheduledAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create post")
		return
	}
	if req.Pinned {
		post, err = qtx.SetPostPinned(ctx, store.SetPostPinnedParams{
			Pinned:    true,
			UpdatedAt: now,
			ID:        post.ID,
		})
		if err != nil {
			WriteInternalError(w, "Failed to create post")
			return
		}
	}
	if req.Status == model.PostStatusPublished {
		post, err = qtx.SetPostStatus(ctx, store.SetPostStatusParams{
			Status:      model.PostStatusPublished,
			PublishedAt: sql.NullTime{Time: now, Valid: true},
			UpdatedAt:   now,
			ID:          post.ID,
		})
		if err != nil {
			WriteInternalError(w, "Failed to create post")
			return
		}
	}

	tags, ok := h.attachPostTags(ctx, w, qtx, post.ID, req.Tags)
	if !ok {
		return
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to create post")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "post created",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"post_id": post.ID, "slug": post.Slug, "status": post.Status})

	WriteCreated(w, storePostToResponse(post, tags))
}

// attachPostTags resolves tag slugs and links them to the post inside the
// caller's transaction. Unknown slugs fail validation before anything is
// committed.
func (h *Handler) attachPostTags(ctx context.Context, w http.ResponseWriter, qtx *store.Queries, postID int64, slugs []string) ([]store.Tag, bool) {
	tags := make([]store.Tag, 0, len(slugs))
	for _, tagSlug := range slugs {
		tag, err := qtx.GetTagBySlug(ctx, tagSlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteValidationError(w, map[string]string{"tags": "Unknown tag: " + tagSlug})
			} else {
				WriteInternalError(w, "Failed to resolve tags")
			}
			return nil, false
		}
		if err := qtx.AddPostTag(ctx, store.AddPostTagParams{PostID: postID, TagID: tag.ID}); err != nil {
			WriteInternalError(w, "Failed to resolve tags")
			return nil, false
		}
		tags = append(tags, tag)
	}
	return tags, true
}

// UpdatePost handles PUT /api/v1/posts/{id} (admin only). A body change
// re-renders the stored HTML; publishing a draft stamps published_at the
// first time only.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, ok := requireEntityByID(w, r, "post", func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	validationErrors := make(map[string]string)
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		validationErrors["title"] = "Title is required"
	}
	if req.Status != nil && !model.IsValidPostStatus(*req.Status) {
		validationErrors["status"] = "Status must be draft or published"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	// Partial update: start from the current row.
	now := time.Now()
	params := store.UpdatePostParams{
		Title:       post.Title,
		Body:        post.Body,
		BodyHTML:    post.BodyHTML,
		MembersOnly: post.MembersOnly,
		ScheduledAt: post.ScheduledAt,
		UpdatedAt:   now,
		ID:          post.ID,
	}
	if req.Title != nil {
		params.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		rendered, err := markdown.ToHTML(*req.Body)
		if err != nil {
			WriteInternalError(w, "Failed to render post body")
			return
		}
		params.Body = *req.Body
		params.BodyHTML = rendered
	}
	if req.MembersOnly != nil {
		params.MembersOnly = *req.MembersOnly
	}
	if req.ScheduledAt != nil {
		params.ScheduledAt = util.NullTimeFromPtr(req.ScheduledAt)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}
	defer func() { _ = tx.Rollback() }()
	qtx := h.queries.WithTx(tx)

	updated, err := qtx.UpdatePost(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}
	if req.Status != nil && *req.Status != post.Status {
		publishedAt := post.PublishedAt
		if *req.Status == model.PostStatusPublished && !publishedAt.Valid {
			publishedAt = sql.NullTime{Time: now, Valid: true}
		}
		updated, err = qtx.SetPostStatus(ctx, store.SetPostStatusParams{
			Status:      *req.Status,
			PublishedAt: publishedAt,
			UpdatedAt:   now,
			ID:          post.ID,
		})
		if err != nil {
			WriteInternalError(w, "Failed to update post")
			return
		}
	}
	if req.Pinned != nil && *req.Pinned != post.Pinned {
		updated, err = qtx.SetPostPinned(ctx, store.SetPostPinnedParams{
			Pinned:    *req.Pinned,
			UpdatedAt: now,
			ID:        post.ID,
		})
		if err != nil {
			WriteInternalError(w, "Failed to update post")
			return
		}
	}

	var tags []store.Tag
	if req.Tags != nil {
		if err := qtx.DeletePostTags(ctx, post.ID); err != nil {
			WriteInternalError(w, "Failed to update post")
			return
		}
		tags, ok = h.attachPostTags(ctx, w, qtx, post.ID, req.Tags)
		if !ok {
			return
		}
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "post updated",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"post_id": updated.ID, "slug": updated.Slug})

	if req.Tags == nil {
		resp, err := h.postResponse(ctx, updated)
		if err != nil {
			WriteInternalError(w, "Failed to update post")
			return
		}
		WriteSuccess(w, resp, nil)
		return
	}
	WriteSuccess(w, storePostToResponse(updated, tags), nil)
}

// PublishPost handles POST /api/v1/posts/{id}/publish (admin only).
// Republishing keeps the original published_at.
func (h *Handler) PublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPostStatus(w, r, model.PostStatusPublished, "post published")
}

// UnpublishPost handles POST /api/v1/posts/{id}/unpublish (admin only).
func (h *Handler) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPostStatus(w, r, model.PostStatusDraft, "post unpublished")
}

func (h *Handler) setPostStatus(w http.ResponseWriter, r *http.Request, status, auditMessage string) {
	ctx := r.Context()
	post, ok := requireEntityByID(w, r, "post", func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	now := time.Now()
	publishedAt := post.PublishedAt
	if status == model.PostStatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}
	updated, err := h.queries.SetPostStatus(ctx, store.SetPostStatusParams{
		Status:      status,
		PublishedAt: publishedAt,
		UpdatedAt:   now,
		ID:          post.ID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, auditMessage,
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"post_id": updated.ID, "slug": updated.Slug})

	resp, err := h.postResponse(ctx, updated)
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}
	WriteSuccess(w, resp, nil)
}

// PinPost handles POST /api/v1/posts/{id}/pin (admin only).
func (h *Handler) PinPost(w http.ResponseWriter, r *http.Request) {
	h.setPostPinned(w, r, true, "post pinned")
}

// UnpinPost handles POST /api/v1/posts/{id}/unpin (admin only).
func (h *Handler) UnpinPost(w http.ResponseWriter, r *http.Request) {
	h.setPostPinned(w, r, false, "post unpinned")
}

func (h *Handler) setPostPinned(w http.ResponseWriter, r *http.Request, pinned bool, auditMessage string) {
	ctx := r.Context()
	post, ok := requireEntityByID(w, r, "post", func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	updated, err := h.queries.SetPostPinned(ctx, store.SetPostPinnedParams{
		Pinned:    pinned,
		UpdatedAt: time.Now(),
		ID:        post.ID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, auditMessage,
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"post_id": updated.ID, "slug": updated.Slug})

	resp, err := h.postResponse(ctx, updated)
	if err != nil {
		WriteInternalError(w, "Failed to update post")
		return
	}
	WriteSuccess(w, resp, nil)
}

// DeletePost handles DELETE /api/v1/posts/{id} (admin only).
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, ok := requireEntityByID(w, r, "post", func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeletePost(ctx, post.ID); err != nil {
		WriteInternalError(w, "Failed to delete post")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "post deleted",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"post_id": post.ID, "slug": post.Slug})

	w.WriteHeader(http.StatusNoContent)
}
