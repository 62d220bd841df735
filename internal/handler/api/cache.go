// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/util"
)

// CacheStatsResponse reports per-cache and aggregate statistics.
type CacheStatsResponse struct {
	Caches []cache.NamedStats `json:"caches"`
	Total  cache.Stats        `json:"total"`
}

// ClearCache handles POST /api/v1/admin/cache/clear
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.cache.ClearAll(ctx)

	_ = h.audit.LogInfo(ctx, model.AuditCategoryCache, "caches cleared", middleware.GetUserIDPtr(r), util.ClientIP(r), nil)

	WriteSuccess(w, map[string]string{"status": "cleared"}, nil)
}

// GetCacheStats handles GET /api/v1/admin/cache/stats
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, CacheStatsResponse{
		Caches: h.cache.AllStats(),
		Total:  h.cache.TotalStats(),
	}, nil)
}
