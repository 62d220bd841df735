// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// AuditEventResponse represents an audit trail entry in API responses.
type AuditEventResponse struct {
	ID        int64          `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	UserID    *int64         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IPAddress *string        `json:"ip_address,omitempty"`
}

// storeAuditEventToResponse converts a store.AuditEvent to AuditEventResponse.
func storeAuditEventToResponse(e store.AuditEvent) AuditEventResponse {
	resp := AuditEventResponse{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		UserID:    util.Int64Ptr(e.UserID),
		IPAddress: util.StringPtr(e.IPAddress),
	}
	if e.Metadata.Valid {
		// Stored metadata is JSON written by the audit service; rows
		// that fail to decode are surfaced without metadata.
		var meta map[string]any
		if err := json.Unmarshal([]byte(e.Metadata.String), &meta); err == nil {
			resp.Metadata = meta
		}
	}
	return resp
}

// ListAuditEvents handles GET /api/v1/admin/audit-events
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)

	level := r.URL.Query().Get("level")
	category := r.URL.Query().Get("category")
	userID := int64(handler.ParseIntParam(r, "user_id", 0, 1, 0))

	events, err := h.queries.ListAuditEvents(ctx, store.ListAuditEventsParams{
		Level:    level,
		Category: category,
		UserID:   userID,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		slog.Error("failed to list audit events", "error", err)
		WriteInternalError(w, "Failed to retrieve audit events")
		return
	}

	total, err := h.queries.CountAuditEvents(ctx, store.CountAuditEventsParams{
		Level:    level,
		Category: category,
		UserID:   userID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to count audit events")
		return
	}

	responses := make([]AuditEventResponse, len(events))
	for i, e := range events {
		responses[i] = storeAuditEventToResponse(e)
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(int(total), perPage),
	})
}
