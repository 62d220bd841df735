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

// PersonResponse represents a directory profile in API responses.
type PersonResponse struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	Organization   *string   `json:"organization,omitempty"`
	JobTitle       *string   `json:"job_title,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	ProfileClaimed bool      `json:"profile_claimed"`
	CreatedAt      time.Time `json:"created_at"`
}

// storePersonToResponse converts a store.Person to PersonResponse.
func storePersonToResponse(p store.Person) PersonResponse {
	resp := PersonResponse{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		ProfileClaimed: p.UserID.Valid,
		CreatedAt:      p.CreatedAt,
	}
	if p.AvatarURL.Valid {
		resp.AvatarURL = &p.AvatarURL.String
	}
	if p.Organization.Valid {
		resp.Organization = &p.Organization.String
	}
	if p.JobTitle.Valid {
		resp.JobTitle = &p.JobTitle.String
	}
	if p.Bio.Valid {
		resp.Bio = &p.Bio.String
	}
	return resp
}

// UpdatePersonRequest represents the request body for updating a profile.
type UpdatePersonRequest struct {
	Name         *string `json:"name"`
	Bio          *string `json:"bio"`
	Organization *string `json:"organization"`
	JobTitle     *string `json:"job_title"`
	AvatarURL    *string `json:"avatar_url"`
}

// ListPeople handles GET /api/v1/people
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	company := strings.TrimSpace(r.URL.Query().Get("company"))

	key := cache.Key(cache.GroupPeople, strconv.Itoa(page), strconv.Itoa(perPage), query, company)
	if h.serveCachedListing(w, r, key) {
		return
	}

	limit := int64(perPage)
	offset := int64((page - 1) * perPage)

	var (
		people []store.Person
		total  int64
		err    error
	)
	switch {
	case query != "":
		pattern := "%" + query + "%"
		people, err = h.queries.SearchPeople(ctx, store.SearchPeopleParams{
			Query:  pattern,
			Limit:  limit,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountSearchPeople(ctx, pattern)
		}
	case company != "":
		people, err = h.queries.ListPeopleByOrganization(ctx, store.ListPeopleByOrganizationParams{
			Organization: company,
			Limit:        limit,
			Offset:       offset,
		})
		if err == nil {
			total, err = h.queries.CountPeopleByOrganization(ctx, company)
		}
	default:
		people, err = h.queries.ListPeople(ctx, store.ListPeopleParams{
			Limit:  limit,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountPeople(ctx)
		}
	}
	if err != nil {
		slog.Error("failed to list people", "error", err)
		WriteInternalError(w, "Failed to retrieve people")
		return
	}

	responses := make([]PersonResponse, len(people))
	for i, p := range people {
		responses[i] = storePersonToResponse(p)
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

// GetPerson handles GET /api/v1/people/{slug}
//
// A profile without a linked user account is a normal profile; clients
// use profile_claimed to render the claim prompt.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	person, err := h.queries.GetPersonBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Person not found")
		} else {
			WriteInternalError(w, "Failed to retrieve person")
		}
		return
	}

	WriteSuccess(w, storePersonToResponse(person), nil)
}

// UpdatePerson handles PUT /api/v1/people/{id}
//
// Members may edit the profile linked to their own account; admins may
// edit any profile.
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	person, ok := requireEntityByID(w, r, "person", func(id int64) (store.Person, error) {
		return h.queries.GetPersonByID(ctx, id)
	})
	if !ok {
		return
	}

	if !user.IsAdmin {
		if !person.UserID.Valid || person.UserID.Int64 != user.ID {
			WriteForbidden(w, "You can only edit your own profile")
			return
		}
	}

	var req UpdatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteValidationError(w, map[string]string{"name": "Name cannot be empty"})
		return
	}

	// Partial update: start from the current row
	params := store.UpdatePersonParams{
		Name:         person.Name,
		Email:        person.Email,
		AvatarURL:    person.AvatarURL,
		Organization: person.Organization,
		JobTitle:     person.JobTitle,
		Bio:          person.Bio,
		UpdatedAt:    time.Now(),
		ID:           person.ID,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Bio != nil {
		params.Bio = util.NullStringFromValue(*req.Bio)
	}
	if req.Organization != nil {
		params.Organization = util.NullStringFromValue(*req.Organization)
	}
	if req.JobTitle != nil {
		params.JobTitle = util.NullStringFromValue(*req.JobTitle)
	}
	if req.AvatarURL != nil {
		params.AvatarURL = util.NullStringFromValue(*req.AvatarURL)
	}

	updated, err := h.queries.UpdatePerson(ctx, params)
	if err != nil {
		slog.Error("failed to update person", "error", err, "person_id", person.ID)
		WriteInternalError(w, "Failed to update person")
		return
	}

	h.cache.InvalidatePeople(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPerson, "person updated", &user.ID, util.ClientIP(r),
		map[string]any{"person_id": person.ID})

	WriteSuccess(w, storePersonToResponse(updated), nil)
}

// DeletePerson handles DELETE /api/v1/people/{id}
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	person, ok := requireEntityByID(w, r, "person", func(id int64) (store.Person, error) {
		return h.queries.GetPersonByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeletePerson(ctx, person.ID); err != nil {
		slog.Error("failed to delete person", "error", err, "person_id", person.ID)
		WriteInternalError(w, "Failed to delete person")
		return
	}

	h.cache.InvalidatePeople(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryPerson, "person deleted", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"person_id": person.ID, "name": person.Name})

	w.WriteHeader(http.StatusNoContent)
}
