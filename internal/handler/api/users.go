// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// UpdateUserRequest represents the admin request body for updating a
// user account.
type UpdateUserRequest struct {
	Name               *string `json:"name"`
	IsAdmin            *bool   `json:"is_admin"`
	SubscriptionStatus *string `json:"subscription_status"`
}

// ListUsers handles GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		users []store.User
		total int64
		err   error
	)
	if query != "" {
		users, err = h.queries.SearchUsers(ctx, store.SearchUsersParams{
			Query:  query,
			Limit:  int64(perPage),
			Offset: int64((page - 1) * perPage),
		})
		if err == nil {
			total, err = h.queries.CountSearchUsers(ctx, query)
		}
	} else {
		users, err = h.queries.ListUsers(ctx, store.ListUsersParams{
			Limit:  int64(perPage),
			Offset: int64((page - 1) * perPage),
		})
		if err == nil {
			total, err = h.queries.CountUsers(ctx)
		}
	}
	if err != nil {
		slog.Error("failed to list users", "error", err)
		WriteInternalError(w, "Failed to retrieve users")
		return
	}

	responses := make([]UserResponse, len(users))
	for i, u := range users {
		responses[i] = storeUserToResponse(u)
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(int(total), perPage),
	})
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUserByID(r.Context(), id)
	})
	if !ok {
		return
	}

	WriteSuccess(w, storeUserToResponse(user), nil)
}

// UpdateUser handles PUT /api/v1/admin/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUserByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteValidationError(w, map[string]string{"name": "Name cannot be empty"})
		return
	}
	if req.SubscriptionStatus != nil && !model.IsValidSubscriptionStatus(*req.SubscriptionStatus) {
		WriteValidationError(w, map[string]string{"subscription_status": "Unknown subscription status"})
		return
	}

	now := time.Now()
	params := store.UpdateUserParams{
		Email:     user.Email,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin,
		UpdatedAt: now,
		ID:        user.ID,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.IsAdmin != nil {
		params.IsAdmin = *req.IsAdmin
	}

	updated, err := h.queries.UpdateUser(ctx, params)
	if err != nil {
		slog.Error("failed to update user", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to update user")
		return
	}

	if req.SubscriptionStatus != nil && *req.SubscriptionStatus != user.SubscriptionStatus {
		if err := h.queries.UpdateUserSubscription(ctx, store.UpdateUserSubscriptionParams{
			SubscriptionStatus: *req.SubscriptionStatus,
			StripeCustomerID:   user.StripeCustomerID,
			UpdatedAt:          now,
			ID:                 user.ID,
		}); err != nil {
			slog.Error("failed to update subscription", "error", err, "user_id", user.ID)
			WriteInternalError(w, "Failed to update subscription")
			return
		}
		updated.SubscriptionStatus = *req.SubscriptionStatus
	}

	_ = h.audit.LogUser(ctx, model.AuditLevelInfo, "user updated", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"user_id": user.ID, "email": user.Email})

	WriteSuccess(w, storeUserToResponse(updated), nil)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUserByID(ctx, id)
	})
	if !ok {
		return
	}

	if user.ID == middleware.GetUserID(r) {
		WriteConflict(w, "You cannot delete your own account")
		return
	}

	if err := h.queries.DeleteUser(ctx, user.ID); err != nil {
		slog.Error("failed to delete user", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to delete user")
		return
	}

	_ = h.audit.LogUser(ctx, model.AuditLevelWarning, "user deleted", middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"user_id": user.ID, "email": user.Email})

	w.WriteHeader(http.StatusNoContent)
}
