// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// RoleResponse represents a role with its granted permission names.
type RoleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// PermissionResponse represents one entry of the permission catalog.
type PermissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GrantPermissionRequest is the request body for granting a permission to a role.
type GrantPermissionRequest struct {
	Permission string `json:"permission"`
}

// AssignRoleRequest is the request body for assigning a role to a user.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) roleResponse(ctx context.Context, role store.Role) (RoleResponse, error) {
	perms, err := h.queries.ListPermissionsByRole(ctx, role.ID)
	if err != nil {
		return RoleResponse{}, err
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: names,
	}, nil
}

// ListRoles handles GET /api/v1/roles (admin only).
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := h.queries.ListRoles(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to list roles")
		return
	}

	responses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		resp, err := h.roleResponse(ctx, role)
		if err != nil {
			WriteInternalError(w, "Failed to list roles")
			return
		}
		responses = append(responses, resp)
	}

	WriteSuccess(w, responses, nil)
}

// ListPermissions handles GET /api/v1/permissions (admin only).
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.queries.ListPermissions(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list permissions")
		return
	}

	responses := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		responses = append(responses, PermissionResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
		})
	}

	WriteSuccess(w, responses, nil)
}

// GrantRolePermission handles POST /api/v1/roles/{id}/permissions (admin
// only). Granting an already-granted pair is a no-op.
func (h *Handler) GrantRolePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, ok := requireEntityByID(w, r, "role", func(id int64) (store.Role, error) {
		return h.queries.GetRoleByID(ctx, id)
	})
	if !ok {
		return
	}

	var req GrantPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	req.Permission = strings.TrimSpace(req.Permission)
	if req.Permission == "" {
		WriteValidationError(w, map[string]string{"permission": "Permission name is required"})
		return
	}

	perm, err := h.queries.GetPermissionByName(ctx, req.Permission)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Permission not found")
		} else {
			WriteInternalError(w, "Failed to grant permission")
		}
		return
	}

	if err := h.queries.GrantPermission(ctx, store.GrantPermissionParams{
		RoleID:       role.ID,
		PermissionID: perm.ID,
	}); err != nil {
		WriteInternalError(w, "Failed to grant permission")
		return
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryRole, "permission granted",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"role": role.Name, "permission": perm.Name})

	resp, err := h.roleResponse(ctx, role)
	if err != nil {
		WriteInternalError(w, "Failed to grant permission")
		return
	}
	WriteSuccess(w, resp, nil)
}

// RevokeRolePermission handles DELETE /api/v1/roles/{id}/permissions/{name}
// (admin only). Required pairs cannot be revoked no matter how often or in
// what order it is attempted.
func (h *Handler) RevokeRolePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, ok := requireEntityByID(w, r, "role", func(id int64) (store.Role, error) {
		return h.queries.GetRoleByID(ctx, id)
	})
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		WriteBadRequest(w, "Permission name is required", nil)
		return
	}

	if model.IsRequiredPermission(role.Name, name) {
		WriteValidationError(w, map[string]string{
			"permission": fmt.Sprintf("Permission %q is required for the %s role and cannot be revoked", name, role.Name),
		})
		return
	}

	perm, err := h.queries.GetPermissionByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Permission not found")
		} else {
			WriteInternalError(w, "Failed to revoke permission")
		}
		return
	}

	if err := h.queries.RevokePermission(ctx, store.RevokePermissionParams{
		RoleID:       role.ID,
		PermissionID: perm.ID,
	}); err != nil {
		WriteInternalError(w, "Failed to revoke permission")
		return
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryRole, "permission revoked",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"role": role.Name, "permission": perm.Name})

	w.WriteHeader(http.StatusNoContent)
}

// AssignUserRole handles POST /api/v1/users/{id}/roles (admin only) and
// responds with the user's full role list.
func (h *Handler) AssignUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUserByID(ctx, id)
	})
	if !ok {
		return
	}

	var req AssignRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	req.Role = strings.TrimSpace(req.Role)
	if req.Role == "" {
		WriteValidationError(w, map[string]string{"role": "Role name is required"})
		return
	}

	role, err := h.queries.GetRoleByName(ctx, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Role not found")
		} else {
			WriteInternalError(w, "Failed to assign role")
		}
		return
	}

	if err := h.queries.AssignRoleToUser(ctx, store.AssignRoleToUserParams{
		UserID: user.ID,
		RoleID: role.ID,
	}); err != nil {
		WriteInternalError(w, "Failed to assign role")
		return
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryRole, "role assigned",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"user_id": user.ID, "role": role.Name})

	h.writeUserRoles(ctx, w, user.ID)
}

// RemoveUserRole handles DELETE /api/v1/users/{id}/roles/{roleID} (admin only).
func (h *Handler) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUserByID(ctx, id)
	})
	if !ok {
		return
	}

	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid role ID", nil)
		return
	}
	role, err := h.queries.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Role not found")
		} else {
			WriteInternalError(w, "Failed to remove role")
		}
		return
	}

	if err := h.queries.RemoveRoleFromUser(ctx, store.RemoveRoleFromUserParams{
		UserID: user.ID,
		RoleID: role.ID,
	}); err != nil {
		WriteInternalError(w, "Failed to remove role")
		return
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryRole, "role removed",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"user_id": user.ID, "role": role.Name})

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeUserRoles(ctx context.Context, w http.ResponseWriter, userID int64) {
	roles, err := h.queries.ListRolesByUser(ctx, userID)
	if err != nil {
		WriteInternalError(w, "Failed to list user roles")
		return
	}
	responses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		resp, err := h.roleResponse(ctx, role)
		if err != nil {
			WriteInternalError(w, "Failed to list user roles")
			return
		}
		responses = append(responses, resp)
	}
	WriteSuccess(w, responses, nil)
}
