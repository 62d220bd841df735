package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// TagResponse represents a tag with its published-post count.
type TagResponse struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}

// TagRequest is the request body for creating or renaming a tag.
type TagRequest struct {
	Name string `json:"name"`
}

// ListTags handles GET /api/v1/tags. Counts cover published posts only.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := cache.Key(cache.GroupTags, "all")
	if h.serveCachedListing(w, r, key) {
		return
	}

	tags, err := h.queries.ListTagsWithCounts(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to list tags")
		return
	}

	responses := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, TagResponse{
			ID:        tag.ID,
			Slug:      tag.Slug,
			Name:      tag.Name,
			PostCount: tag.PostCount,
			CreatedAt: tag.CreatedAt,
		})
	}

	h.writeListing(w, r, key, Response{Data: responses})
}

// CreateTag handles POST /api/v1/tags (admin only).
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TagRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}

	slug := util.SlugifyWithID(req.Name, "", "tag")
	if !checkSlugUnique(w, slugInUse(func() (store.Tag, error) {
		return h.queries.GetTagBySlug(ctx, slug)
	})) {
		return
	}

	tag, err := h.queries.CreateTag(ctx, store.CreateTagParams{
		Slug:      slug,
		Name:      req.Name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		WriteInternalError(w, "Failed to create tag")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "tag created",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"tag_id": tag.ID, "slug": tag.Slug})

	WriteCreated(w, TagResponse{
		ID:        tag.ID,
		Slug:      tag.Slug,
		Name:      tag.Name,
		CreatedAt: tag.CreatedAt,
	})
}

// UpdateTag handles PUT /api/v1/tags/{id} (admin only). Renaming a tag
// regenerates its slug.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag, ok := requireEntityByID(w, r, "tag", func(id int64) (store.Tag, error) {
		return h.queries.GetTagByID(ctx, id)
	})
	if !ok {
		return
	}

	var req TagRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}

	slug := util.SlugifyWithID(req.Name, "", "tag")
	if slug != tag.Slug {
		if !checkSlugUnique(w, slugInUse(func() (store.Tag, error) {
			return h.queries.GetTagBySlug(ctx, slug)
		})) {
			return
		}
	}

	updated, err := h.queries.UpdateTag(ctx, store.UpdateTagParams{
		Slug: slug,
		Name: req.Name,
		ID:   tag.ID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to update tag")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "tag updated",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"tag_id": updated.ID, "slug": updated.Slug})

	WriteSuccess(w, TagResponse{
		ID:        updated.ID,
		Slug:      updated.Slug,
		Name:      updated.Name,
		CreatedAt: updated.CreatedAt,
	}, nil)
}

// DeleteTag handles DELETE /api/v1/tags/{id} (admin only). Posts carrying
// the tag keep everything but the tag itself.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag, ok := requireEntityByID(w, r, "tag", func(id int64) (store.Tag, error) {
		return h.queries.GetTagByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteTag(ctx, tag.ID); err != nil {
		WriteInternalError(w, "Failed to delete tag")
		return
	}

	h.cache.InvalidateFeed(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPost, "tag deleted",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"tag_id": tag.ID, "slug": tag.Slug})

	w.WriteHeader(http.StatusNoContent)
}
