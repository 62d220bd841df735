// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// UpdateSettingsRequest is a bulk key/value upsert.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

// GetSettings handles GET /api/v1/admin/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.queries.ListSettings(r.Context())
	if err != nil {
		slog.Error("failed to list settings", "error", err)
		WriteInternalError(w, "Failed to retrieve settings")
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	WriteSuccess(w, values, nil)
}

// UpdateSettings handles PUT /api/v1/admin/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if len(req.Settings) == 0 {
		WriteValidationError(w, map[string]string{"settings": "At least one setting is required"})
		return
	}

	now := time.Now()
	keys := make([]string, 0, len(req.Settings))
	for key, value := range req.Settings {
		key = strings.TrimSpace(key)
		if key == "" {
			WriteValidationError(w, map[string]string{"settings": "Setting keys cannot be empty"})
			return
		}
		if err := h.queries.UpsertSetting(ctx, store.UpsertSettingParams{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		}); err != nil {
			slog.Error("failed to upsert setting", "error", err, "key", key)
			WriteInternalError(w, "Failed to save settings")
			return
		}
		keys = append(keys, key)
	}

	h.cache.InvalidateSettings()
	_ = h.audit.LogInfo(ctx, model.AuditCategorySystem, "settings updated", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"keys": keys})

	settings, err := h.queries.ListSettings(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve settings")
		return
	}
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	WriteSuccess(w, values, nil)
}
