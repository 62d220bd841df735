// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// TimelineEventResponse represents one milestone on the about-page timeline.
type TimelineEventResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	HappenedOn  time.Time `json:"happened_on"`
	Position    int64     `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTimelineEventRequest is the request body for adding a milestone.
// New milestones are appended to the end of the display order.
type CreateTimelineEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	HappenedOn  *time.Time `json:"happened_on"`
}

// UpdateTimelineEventRequest is the request body for editing a milestone.
type UpdateTimelineEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	HappenedOn  *time.Time `json:"happened_on"`
}

// ReorderTimelineRequest carries the full set of milestone IDs in their new
// display order.
type ReorderTimelineRequest struct {
	IDs []int64 `json:"ids"`
}

func storeTimelineEventToResponse(e store.TimelineEvent) TimelineEventResponse {
	return TimelineEventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		HappenedOn:  e.HappenedOn,
		Position:    e.Position,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ListTimeline handles GET /api/v1/timeline. Milestones come back in
// display order.
func (h *Handler) ListTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := cache.Key(cache.GroupTimeline, "all")
	if h.serveCachedListing(w, r, key) {
		return
	}

	events, err := h.queries.ListTimelineEvents(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to list timeline")
		return
	}

	responses := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, storeTimelineEventToResponse(e))
	}

	h.writeListing(w, r, key, Response{Data: responses})
}

// CreateTimelineEvent handles POST /api/v1/timeline (admin only).
func (h *Handler) CreateTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTimelineEventRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	validationErrors := make(map[string]string)
	if req.Title == "" {
		validationErrors["title"] = "Title is required"
	}
	if req.HappenedOn == nil {
		validationErrors["happened_on"] = "Date is required"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	position, err := h.queries.GetNextTimelinePosition(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to create timeline event")
		return
	}

	now := time.Now()
	event, err := h.queries.CreateTimelineEvent(ctx, store.CreateTimelineEventParams{
		Title:       req.Title,
		Description: req.Description,
		HappenedOn:  *req.HappenedOn,
		Position:    position,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create timeline event")
		return
	}

	h.cache.InvalidateTimeline(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategorySystem, "timeline event created",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"timeline_event_id": event.ID, "title": event.Title})

	WriteCreated(w, storeTimelineEventToResponse(event))
}

// UpdateTimelineEvent handles PUT /api/v1/timeline/{id} (admin only).
func (h *Handler) UpdateTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, ok := requireEntityByID(w, r, "timeline event", func(id int64) (store.TimelineEvent, error) {
		return h.queries.GetTimelineEventByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdateTimelineEventRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		WriteValidationError(w, map[string]string{"title": "Title is required"})
		return
	}

	// Partial update: start from the current row.
	params := store.UpdateTimelineEventParams{
		Title:       event.Title,
		Description: event.Description,
		HappenedOn:  event.HappenedOn,
		UpdatedAt:   time.Now(),
		ID:          event.ID,
	}
	if req.Title != nil {
		params.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.HappenedOn != nil {
		params.HappenedOn = *req.HappenedOn
	}

	updated, err := h.queries.UpdateTimelineEvent(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update timeline event")
		return
	}

	h.cache.InvalidateTimeline(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategorySystem, "timeline event updated",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"timeline_event_id": updated.ID, "title": updated.Title})

	WriteSuccess(w, storeTimelineEventToResponse(updated), nil)
}

// ReorderTimeline handles POST /api/v1/timeline/reorder (admin only). The
// submitted IDs get positions matching their array order, all in one
// transaction.
func (h *Handler) ReorderTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReorderTimelineRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if len(req.IDs) == 0 {
		WriteValidationError(w, map[string]string{"ids": "At least one timeline event ID is required"})
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		WriteInternalError(w, "Failed to reorder timeline")
		return
	}
	defer func() { _ = tx.Rollback() }()
	qtx := h.queries.WithTx(tx)

	now := time.Now()
	for i, id := range req.IDs {
		if _, err := qtx.GetTimelineEventByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteValidationError(w, map[string]string{
					"ids": "Unknown timeline event: " + strconv.FormatInt(id, 10),
				})
			} else {
				WriteInternalError(w, "Failed to reorder timeline")
			}
			return
		}
		if err := qtx.UpdateTimelineEventPosition(ctx, store.UpdateTimelineEventPositionParams{
			Position:  int64(i),
			UpdatedAt: now,
			ID:        id,
		}); err != nil {
			WriteInternalError(w, "Failed to reorder timeline")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to reorder timeline")
		return
	}

	h.cache.InvalidateTimeline(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategorySystem, "timeline reordered",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"count": len(req.IDs)})

	events, err := h.queries.ListTimelineEvents(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to reorder timeline")
		return
	}
	responses := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, storeTimelineEventToResponse(e))
	}
	WriteSuccess(w, responses, nil)
}

// DeleteTimelineEvent handles DELETE /api/v1/timeline/{id} (admin only).
func (h *Handler) DeleteTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, ok := requireEntityByID(w, r, "timeline event", func(id int64) (store.TimelineEvent, error) {
		return h.queries.GetTimelineEventByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteTimelineEvent(ctx, event.ID); err != nil {
		WriteInternalError(w, "Failed to delete timeline event")
		return
	}

	h.cache.InvalidateTimeline(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategorySystem, "timeline event deleted",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"timeline_event_id": event.ID, "title": event.Title})

	w.WriteHeader(http.StatusNoContent)
}
