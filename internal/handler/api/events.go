// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	URL         *string    `json:"url,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	Location    *string    `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EventDetailResponse is an event with its speaker lineup and
// presentation list.
type EventDetailResponse struct {
	EventResponse
	Speakers      []SpeakerResponse      `json:"speakers"`
	Presentations []PresentationResponse `json:"presentations"`
}

// SpeakerResponse represents an event speaker in API responses.
type SpeakerResponse struct {
	ID        int64   `json:"id"`
	PersonID  *int64  `json:"person_id,omitempty"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Position  int64   `json:"position"`
}

// PresentationResponse represents an event presentation in API responses.
type PresentationResponse struct {
	ID        int64   `json:"id"`
	SpeakerID *int64  `json:"speaker_id,omitempty"`
	Title     string  `json:"title"`
	VideoURL  *string `json:"video_url,omitempty"`
	SlidesURL *string `json:"slides_url,omitempty"`
	Position  int64   `json:"position"`
}

// storeEventToResponse converts a store.Event to EventResponse.
func storeEventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Slug:      e.Slug,
		Name:      e.Name,
		StartsAt:  e.StartsAt,
		CreatedAt: e.CreatedAt,
	}
	if e.Description.Valid {
		resp.Description = &e.Description.String
	}
	if e.EndsAt.Valid {
		resp.EndsAt = &e.EndsAt.Time
	}
	if e.URL.Valid {
		resp.URL = &e.URL.String
	}
	if e.CoverURL.Valid {
		resp.CoverURL = &e.CoverURL.String
	}
	if e.Location.Valid {
		resp.Location = &e.Location.String
	}
	return resp
}

// storeSpeakerToResponse converts a store.Speaker to SpeakerResponse.
func storeSpeakerToResponse(s store.Speaker) SpeakerResponse {
	resp := SpeakerResponse{
		ID:       s.ID,
		Name:     s.Name,
		Position: s.Position,
	}
	if s.PersonID.Valid {
		resp.PersonID = &s.PersonID.Int64
	}
	if s.AvatarURL.Valid {
		resp.AvatarURL = &s.AvatarURL.String
	}
	return resp
}

// storePresentationToResponse converts a store.Presentation to PresentationResponse.
func storePresentationToResponse(p store.Presentation) PresentationResponse {
	resp := PresentationResponse{
		ID:       p.ID,
		Title:    p.Title,
		Position: p.Position,
	}
	if p.SpeakerID.Valid {
		resp.SpeakerID = &p.SpeakerID.Int64
	}
	if p.VideoURL.Valid {
		resp.VideoURL = &p.VideoURL.String
	}
	if p.SlidesURL.Valid {
		resp.SlidesURL = &p.SlidesURL.String
	}
	return resp
}

// UpdateEventRequest represents the request body for updating an event.
type UpdateEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	URL         *string    `json:"url"`
	CoverURL    *string    `json:"cover_url"`
	Location    *string    `json:"location"`
}

// SpeakerInput is one entry of a speaker lineup replacement. Positions
// come from array order.
type SpeakerInput struct {
	PersonID  *int64 `json:"person_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// PresentationInput is one entry of a presentation list replacement.
type PresentationInput struct {
	SpeakerID *int64 `json:"speaker_id"`
	Title     string `json:"title"`
	VideoURL  string `json:"video_url"`
	SlidesURL string `json:"slides_url"`
}

// Event list filters.
const (
	eventFilterUpcoming = "upcoming"
	eventFilterPast     = "past"
)

// ListEvents handles GET /api/v1/events
//
// Upcoming events are returned soonest first, past events most recent
// first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)

	filter := r.URL.Query().Get("filter")
	if filter != eventFilterPast {
		filter = eventFilterUpcoming
	}

	key := cache.Key(cache.GroupEvents, filter, strconv.Itoa(page), strconv.Itoa(perPage))
	if h.serveCachedListing(w, r, key) {
		return
	}

	limit := int64(perPage)
	offset := int64((page - 1) * perPage)
	now := time.Now()

	var (
		events []store.Event
		total  int64
		err    error
	)
	if filter == eventFilterPast {
		events, err = h.queries.ListPastEvents(ctx, store.ListPastEventsParams{
			Now:    now,
			Limit:  limit,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountPastEvents(ctx, now)
		}
	} else {
		events, err = h.queries.ListUpcomingEvents(ctx, store.ListUpcomingEventsParams{
			Now:    now,
			Limit:  limit,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountUpcomingEvents(ctx, now)
		}
	}
	if err != nil {
		slog.Error("failed to list events", "error", err, "filter", filter)
		WriteInternalError(w, "Failed to retrieve events")
		return
	}

	responses := make([]EventResponse, len(events))
	for i, e := range events {
		responses[i] = storeEventToResponse(e)
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

// GetEvent handles GET /api/v1/events/{slug}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	event, err := h.queries.GetEventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Event not found")
		} else {
			WriteInternalError(w, "Failed to retrieve event")
		}
		return
	}

	speakers, err := h.queries.ListSpeakersByEvent(ctx, event.ID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve speakers")
		return
	}
	presentations, err := h.queries.ListPresentationsByEvent(ctx, event.ID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve presentations")
		return
	}

	detail := EventDetailResponse{
		EventResponse: storeEventToResponse(event),
		Speakers:      make([]SpeakerResponse, len(speakers)),
		Presentations: make([]PresentationResponse, len(presentations)),
	}
	for i, s := range speakers {
		detail.Speakers[i] = storeSpeakerToResponse(s)
	}
	for i, p := range presentations {
		detail.Presentations[i] = storePresentationToResponse(p)
	}

	WriteSuccess(w, detail, nil)
}

// UpdateEvent handles PUT /api/v1/events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, ok := requireEntityByID(w, r, "event", func(id int64) (store.Event, error) {
		return h.queries.GetEventByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteValidationError(w, map[string]string{"name": "Name cannot be empty"})
		return
	}

	params := store.UpdateEventParams{
		Name:        event.Name,
		Description: event.Description,
		StartsAt:    event.StartsAt,
		EndsAt:      event.EndsAt,
		URL:         event.URL,
		CoverURL:    event.CoverURL,
		Location:    event.Location,
		UpdatedAt:   time.Now(),
		ID:          event.ID,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		params.Description = util.NullStringFromValue(*req.Description)
	}
	if req.StartsAt != nil {
		params.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		params.EndsAt = sql.NullTime{Time: *req.EndsAt, Valid: true}
	}
	if req.URL != nil {
		params.URL = util.NullStringFromValue(*req.URL)
	}
	if req.CoverURL != nil {
		params.CoverURL = util.NullStringFromValue(*req.CoverURL)
	}
	if req.Location != nil {
		params.Location = util.NullStringFromValue(*req.Location)
	}

	updated, err := h.queries.UpdateEvent(ctx, params)
	if err != nil {
		slog.Error("failed to update event", "error", err, "event_id", event.ID)
		WriteInternalError(w, "Failed to update event")
		return
	}

	h.cache.InvalidateEvents(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryEvent, "event updated", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"event_id": event.ID})

	WriteSuccess(w, storeEventToResponse(updated), nil)
}

// ReplaceSpeakers handles PUT /api/v1/events/{id}/speakers
//
// The whole lineup is swapped in one transaction so readers never see a
// half-replaced list.
func (h *Handler) ReplaceSpeakers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, ok := requireEntityByID(w, r, "event", func(id int64) (store.Event, error) {
		return h.queries.GetEventByID(ctx, id)
	})
	if !ok {
		return
	}

	var inputs []SpeakerInput
	if err := decodeJSON(r, &inputs); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	for i, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			WriteValidationError(w, map[string]string{"name": "Speaker " + strconv.Itoa(i+1) + " has no name"})
			return
		}
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		WriteInternalError(w, "Failed to update speakers")
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	if err := qtx.DeleteSpeakersByEvent(ctx, event.ID); err != nil {
		WriteInternalError(w, "Failed to update speakers")
		return
	}

	speakers := make([]SpeakerResponse, len(inputs))
	for i, in := range inputs {
		speaker, err := qtx.CreateSpeaker(ctx, store.CreateSpeakerParams{
			EventID:   event.ID,
			PersonID:  util.NullInt64FromPtr(in.PersonID),
			Name:      strings.TrimSpace(in.Name),
			AvatarURL: util.NullStringFromValue(in.AvatarURL),
			Position:  int64(i),
		})
		if err != nil {
			slog.Error("failed to create speaker", "error", err, "event_id", event.ID)
			WriteInternalError(w, "Failed to update speakers")
			return
		}
		speakers[i] = storeSpeakerToResponse(speaker)
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to update speakers")
		return
	}

	h.cache.InvalidateEvents(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryEvent, "event speakers replaced", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"event_id": event.ID, "count": len(speakers)})

	WriteSuccess(w, speakers, nil)
}

// ReplacePresentations handles PUT /api/v1/events/{id}/presentations
func (h *Handler) ReplacePresentations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, ok := requireEntityByID(w, r, "event", func(id int64) (store.Event, error) {
		return h.queries.GetEventByID(ctx, id)
	})
	if !ok {
		return
	}

	var inputs []PresentationInput
	if err := decodeJSON(r, &inputs); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	for i, in := range inputs {
		if strings.TrimSpace(in.Title) == "" {
			WriteValidationError(w, map[string]string{"title": "Presentation " + strconv.Itoa(i+1) + " has no title"})
			return
		}
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		WriteInternalError(w, "Failed to update presentations")
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	if err := qtx.DeletePresentationsByEvent(ctx, event.ID); err != nil {
		WriteInternalError(w, "Failed to update presentations")
		return
	}

	presentations := make([]PresentationResponse, len(inputs))
	for i, in := range inputs {
		presentation, err := qtx.CreatePresentation(ctx, store.CreatePresentationParams{
			EventID:   event.ID,
			SpeakerID: util.NullInt64FromPtr(in.SpeakerID),
			Title:     strings.TrimSpace(in.Title),
			VideoURL:  util.NullStringFromValue(in.VideoURL),
			SlidesURL: util.NullStringFromValue(in.SlidesURL),
			Position:  int64(i),
		})
		if err != nil {
			slog.Error("failed to create presentation", "error", err, "event_id", event.ID)
			WriteInternalError(w, "Failed to update presentations")
			return
		}
		presentations[i] = storePresentationToResponse(presentation)
	}

	if err := tx.Commit(); err != nil {
		WriteInternalError(w, "Failed to update presentations")
		return
	}

	h.cache.InvalidateEvents(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryEvent, "event presentations replaced", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"event_id": event.ID, "count": len(presentations)})

	WriteSuccess(w, presentations, nil)
}

// DeleteEvent handles DELETE /api/v1/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, ok := requireEntityByID(w, r, "event", func(id int64) (store.Event, error) {
		return h.queries.GetEventByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteEvent(ctx, event.ID); err != nil {
		slog.Error("failed to delete event", "error", err, "event_id", event.ID)
		WriteInternalError(w, "Failed to delete event")
		return
	}

	h.cache.InvalidateEvents(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryEvent, "event deleted", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"event_id": event.ID, "name": event.Name})

	w.WriteHeader(http.StatusNoContent)
}
