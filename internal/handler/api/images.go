// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/middleware"
)

// SearchImages handles GET /api/v1/images/search
//
// Proxies the stock-photo search API for authenticated members. Upstream
// failures are forwarded as 502; a missing access key answers 503.
func (h *Handler) SearchImages(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteValidationError(w, map[string]string{"q": "Search query is required"})
		return
	}
	if !h.unsplash.Enabled() {
		WriteServiceUnavailable(w, "Image search is not configured")
		return
	}

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 10, 30)

	result, err := h.unsplash.Search(r.Context(), query, page, perPage)
	if err != nil {
		slog.Error("image search failed", "error", err, "query", query)
		WriteBadGateway(w, "Image search provider error")
		return
	}

	WriteSuccess(w, result.Results, &Meta{
		Total:   int64(result.Total),
		Page:    page,
		PerPage: perPage,
		Pages:   result.TotalPages,
	})
}
