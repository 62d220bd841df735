// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"io"
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

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Website     *string   `json:"website,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	Description *string   `json:"description,omitempty"`
	Claimed     bool      `json:"claimed"`
	CreatedAt   time.Time `json:"created_at"`
}

// storeCompanyToResponse converts a store.Company to CompanyResponse.
func storeCompanyToResponse(c store.Company) CompanyResponse {
	resp := CompanyResponse{
		ID:        c.ID,
		Slug:      c.Slug,
		Name:      c.Name,
		Claimed:   c.ClaimedBy.Valid,
		CreatedAt: c.CreatedAt,
	}
	if c.Website.Valid {
		resp.Website = &c.Website.String
	}
	if c.LogoURL.Valid {
		resp.LogoURL = &c.LogoURL.String
	}
	if c.Description.Valid {
		resp.Description = &c.Description.String
	}
	return resp
}

// CreateCompanyRequest represents the request body for creating a company.
type CreateCompanyRequest struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	Description string `json:"description"`
}

// UpdateCompanyRequest represents the request body for updating a company.
type UpdateCompanyRequest struct {
	Name        *string `json:"name"`
	Website     *string `json:"website"`
	LogoURL     *string `json:"logo_url"`
	Description *string `json:"description"`
}

// ClaimCompanyRequest represents the request body for the admin claim
// override. Members claim for themselves and send no body.
type ClaimCompanyRequest struct {
	UserID *int64 `json:"user_id"`
}

// ListCompanies handles GET /api/v1/companies
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)

	key := cache.Key(cache.GroupCompanies, strconv.Itoa(page), strconv.Itoa(perPage))
	if h.serveCachedListing(w, r, key) {
		return
	}

	companies, err := h.queries.ListCompanies(ctx, store.ListCompaniesParams{
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		slog.Error("failed to list companies", "error", err)
		WriteInternalError(w, "Failed to retrieve companies")
		return
	}

	total, err := h.queries.CountCompanies(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to count companies")
		return
	}

	responses := make([]CompanyResponse, len(companies))
	for i, c := range companies {
		responses[i] = storeCompanyToResponse(c)
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

// GetCompany handles GET /api/v1/companies/{slug}
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	company, err := h.queries.GetCompanyBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Company not found")
		} else {
			WriteInternalError(w, "Failed to retrieve company")
		}
		return
	}

	WriteSuccess(w, storeCompanyToResponse(company), nil)
}

// CreateCompany handles POST /api/v1/companies
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}

	slug := util.SlugifyWithID(req.Name, "", "company")
	if !checkSlugUnique(w, slugInUse(func() (store.Company, error) {
		return h.queries.GetCompanyBySlug(ctx, slug)
	})) {
		return
	}

	now := time.Now()
	company, err := h.queries.CreateCompany(ctx, store.CreateCompanyParams{
		Slug:        slug,
		Name:        req.Name,
		Website:     util.NullStringFromValue(req.Website),
		LogoURL:     util.NullStringFromValue(req.LogoURL),
		Description: util.NullStringFromValue(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to create company", "error", err)
		WriteInternalError(w, "Failed to create company")
		return
	}

	h.cache.InvalidateCompanies(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryCompany, "company created", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"company_id": company.ID, "name": company.Name})

	WriteCreated(w, storeCompanyToResponse(company))
}

// UpdateCompany handles PUT /api/v1/companies/{id}
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	company, ok := requireEntityByID(w, r, "company", func(id int64) (store.Company, error) {
		return h.queries.GetCompanyByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdateCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteValidationError(w, map[string]string{"name": "Name cannot be empty"})
		return
	}

	params := store.UpdateCompanyParams{
		Name:        company.Name,
		Website:     company.Website,
		LogoURL:     company.LogoURL,
		Description: company.Description,
		UpdatedAt:   time.Now(),
		ID:          company.ID,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Website != nil {
		params.Website = util.NullStringFromValue(*req.Website)
	}
	if req.LogoURL != nil {
		params.LogoURL = util.NullStringFromValue(*req.LogoURL)
	}
	if req.Description != nil {
		params.Description = util.NullStringFromValue(*req.Description)
	}

	updated, err := h.queries.UpdateCompany(ctx, params)
	if err != nil {
		slog.Error("failed to update company", "error", err, "company_id", company.ID)
		WriteInternalError(w, "Failed to update company")
		return
	}

	h.cache.InvalidateCompanies(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryCompany, "company updated", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"company_id": company.ID})

	WriteSuccess(w, storeCompanyToResponse(updated), nil)
}

// ClaimCompany handles POST /api/v1/companies/{id}/claim
//
// A member claims an unclaimed company for themselves. Admins may hand
// the claim to any user or clear it by sending {"user_id": null}.
func (h *Handler) ClaimCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	company, ok := requireEntityByID(w, r, "company", func(id int64) (store.Company, error) {
		return h.queries.GetCompanyByID(ctx, id)
	})
	if !ok {
		return
	}

	if user.IsAdmin {
		// An admin sending no body claims for themselves like any
		// member; a body reassigns or, with a null user_id, releases.
		var req ClaimCompanyRequest
		if err := decodeJSON(r, &req); err != nil {
			if !errors.Is(err, io.EOF) {
				WriteBadRequest(w, "Invalid JSON body", nil)
				return
			}
			req.UserID = &user.ID
		}
		if err := h.queries.SetCompanyClaim(ctx, store.SetCompanyClaimParams{
			ClaimedBy: util.NullInt64FromPtr(req.UserID),
			UpdatedAt: time.Now(),
			ID:        company.ID,
		}); err != nil {
			slog.Error("failed to set company claim", "error", err, "company_id", company.ID)
			WriteInternalError(w, "Failed to claim company")
			return
		}
		h.cache.InvalidateCompanies(ctx)
		_ = h.audit.LogInfo(ctx, model.AuditCategoryCompany, "company claim set", &user.ID, util.ClientIP(r),
			map[string]any{"company_id": company.ID, "claimed_by": req.UserID})

		claimed, err := h.queries.GetCompanyByID(ctx, company.ID)
		if err != nil {
			WriteInternalError(w, "Failed to retrieve company")
			return
		}
		WriteSuccess(w, storeCompanyToResponse(claimed), nil)
		return
	}

	rows, err := h.queries.ClaimCompany(ctx, store.ClaimCompanyParams{
		ClaimedBy: user.ID,
		UpdatedAt: time.Now(),
		ID:        company.ID,
	})
	if err != nil {
		slog.Error("failed to claim company", "error", err, "company_id", company.ID)
		WriteInternalError(w, "Failed to claim company")
		return
	}
	if rows == 0 {
		WriteConflict(w, "Company is already claimed")
		return
	}

	h.cache.InvalidateCompanies(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryCompany, "company claimed", &user.ID, util.ClientIP(r),
		map[string]any{"company_id": company.ID})

	claimed, err := h.queries.GetCompanyByID(ctx, company.ID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve company")
		return
	}
	WriteSuccess(w, storeCompanyToResponse(claimed), nil)
}

// DeleteCompany handles DELETE /api/v1/companies/{id}
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	company, ok := requireEntityByID(w, r, "company", func(id int64) (store.Company, error) {
		return h.queries.GetCompanyByID(ctx, id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteCompany(ctx, company.ID); err != nil {
		slog.Error("failed to delete company", "error", err, "company_id", company.ID)
		WriteInternalError(w, "Failed to delete company")
		return
	}

	h.cache.InvalidateCompanies(ctx)
	_ = h.audit.LogInfo(ctx, model.AuditCategoryCompany, "company deleted", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"company_id": company.ID, "name": company.Name})

	w.WriteHeader(http.StatusNoContent)
}
