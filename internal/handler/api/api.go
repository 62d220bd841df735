// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides REST API handlers for the community directory.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/odir-go/internal/billing"
	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/imaging"
	"github.com/olegiv/odir-go/internal/mailer"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/service"
	"github.com/olegiv/odir-go/internal/storage"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/syncer"
	"github.com/olegiv/odir-go/internal/unsplash"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	queries   *store.Queries
	sessions  *scs.SessionManager
	cache     *cache.Manager
	audit     *service.AuditService
	objects   *storage.ObjectStore
	processor *imaging.Processor
	billing   *billing.Client
	unsplash  *unsplash.Client
	mailer    *mailer.Mailer
	syncer    *syncer.Runner
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, sm *scs.SessionManager, cm *cache.Manager, auditService *service.AuditService,
	objects *storage.ObjectStore, billingClient *billing.Client, unsplashClient *unsplash.Client,
	m *mailer.Mailer, runner *syncer.Runner) *Handler {
	return &Handler{
		db:        db,
		queries:   store.New(db),
		sessions:  sm,
		cache:     cm,
		audit:     auditService,
		objects:   objects,
		processor: imaging.NewProcessor(),
		billing:   billingClient,
		unsplash:  unsplashClient,
		mailer:    m,
		syncer:    runner,
	}
}

// List endpoints default to pages of 20 and never return more than 100
// items per page.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	resp := Response{
		Data: data,
		Meta: meta,
	}
	WriteJSON(w, http.StatusOK, resp)
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	resp := Response{
		Data: data,
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteBadGateway writes a 502 Bad Gateway response for upstream failures.
func WriteBadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, "upstream_error", message, nil)
}

// WriteServiceUnavailable writes a 503 Service Unavailable response.
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, "service_unavailable", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// SlugExistsChecker is a function that checks if a slug exists (returns count and error).
type SlugExistsChecker func() (int64, error)

// checkSlugUnique checks if a slug is unique using the provided checker function.
// Returns true if unique, false if duplicate or error (response already written).
// Duplicates are reported as a 409 conflict.
func checkSlugUnique(w http.ResponseWriter, slugExists SlugExistsChecker) bool {
	exists, err := slugExists()
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return false
	}
	if exists != 0 {
		WriteConflict(w, "Slug already exists")
		return false
	}
	return true
}

// slugInUse adapts a get-by-slug lookup to the SlugExistsChecker shape.
func slugInUse[T any](fetch func() (T, error)) SlugExistsChecker {
	return func() (int64, error) {
		if _, err := fetch(); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, nil
			}
			return 0, err
		}
		return 1, nil
	}
}

// EntityFetcher is a function that fetches an entity by ID.
type EntityFetcher[T any] func(id int64) (T, error)

// requireEntityByID parses an ID from the URL and fetches the entity.
// Returns the entity and true if successful, or zero value and false if error (response written).
// The entityName is used for error messages (e.g., "company", "event", "post").
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch EntityFetcher[T]) (T, bool) {
	var zero T

	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid "+entityName+" ID", nil)
		return zero, false
	}

	entity, err := fetch(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, capitalizeFirst(entityName)+" not found")
		} else {
			WriteInternalError(w, "Failed to retrieve "+entityName)
		}
		return zero, false
	}

	return entity, true
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// serveCachedListing writes a cached listing payload when one exists.
// Only anonymous requests are served from cache; authenticated responses
// can differ per viewer.
func (h *Handler) serveCachedListing(w http.ResponseWriter, r *http.Request, key string) bool {
	if middleware.GetUser(r) != nil {
		return false
	}
	payload, ok := h.cache.Listings.Get(r.Context(), key)
	if !ok {
		return false
	}
	writeRawJSON(w, payload)
	return true
}

// writeListing writes a list response, caching the rendered payload for
// anonymous requests.
func (h *Handler) writeListing(w http.ResponseWriter, r *http.Request, key string, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		WriteInternalError(w, "Failed to encode response")
		return
	}
	if middleware.GetUser(r) == nil {
		h.cache.Listings.Set(r.Context(), key, payload)
	}
	writeRawJSON(w, payload)
}

// writeRawJSON writes a pre-rendered JSON payload.
func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
