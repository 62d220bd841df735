// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"slices"
	"testing"

	"github.com/olegiv/odir-go/internal/store"
)

// seedTestRoles runs the startup seeding so the built-in roles, the
// permission catalog and the required grants exist.
func seedTestRoles(t *testing.T, h *Handler) {
	t.Helper()
	if err := store.Seed(context.Background(), h.db, "seed-admin@example.com", "seed-password-1"); err != nil {
		t.Fatalf("seeding roles: %v", err)
	}
}

func roleByName(t *testing.T, q *store.Queries, name string) store.Role {
	t.Helper()
	role, err := q.GetRoleByName(context.Background(), name)
	if err != nil {
		t.Fatalf("fetching role %s: %v", name, err)
	}
	return role
}

func rolePermissionNames(t *testing.T, q *store.Queries, roleID int64) []string {
	t.Helper()
	perms, err := q.ListPermissionsByRole(context.Background(), roleID)
	if err != nil {
		t.Fatalf("listing role permissions: %v", err)
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}

func TestListRoles(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)

	req := withUser(newGetRequest(t, "/api/v1/roles", nil), admin)
	w := executeHandler(t, h.ListRoles, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	roles, _ := unmarshalList[RoleResponse](t, w)
	if len(roles) != 3 {
		t.Fatalf("expected 3 seeded roles, got %d", len(roles))
	}
	byName := make(map[string]RoleResponse, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	for _, required := range []string{"directory:view", "posts:view", "events:view"} {
		if !slices.Contains(byName["user"].Permissions, required) {
			t.Errorf("expected the user role to hold %s, got %v", required, byName["user"].Permissions)
		}
	}
	if !slices.Contains(byName["moderator"].Permissions, "posts:moderate") {
		t.Errorf("expected the moderator role to hold posts:moderate, got %v", byName["moderator"].Permissions)
	}
	if !slices.Contains(byName["sponsor"].Permissions, "company:promote") {
		t.Errorf("expected the sponsor role to hold company:promote, got %v", byName["sponsor"].Permissions)
	}
}

func TestListPermissions(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)

	req := withUser(newGetRequest(t, "/api/v1/permissions", nil), admin)
	w := executeHandler(t, h.ListPermissions, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	perms, _ := unmarshalList[PermissionResponse](t, w)
	if len(perms) != 11 {
		t.Errorf("expected the full permission catalog, got %d entries", len(perms))
	}
}

func TestGrantRolePermission_Idempotent(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	role := roleByName(t, q, "user")
	params := map[string]string{"id": int64String(role.ID)}

	grant := func() *RoleResponse {
		req := withUser(newJSONRequest(t, http.MethodPost, "/api/v1/roles/"+int64String(role.ID)+"/permissions",
			`{"permission": "posts:create"}`, params), admin)
		w := executeHandler(t, h.GrantRolePermission, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[RoleResponse](t, w)
		return &resp
	}

	first := grant()
	if !slices.Contains(first.Permissions, "posts:create") {
		t.Fatalf("expected posts:create after grant, got %v", first.Permissions)
	}

	// Granting again must not duplicate the pair.
	grant()
	count := 0
	for _, name := range rolePermissionNames(t, q, role.ID) {
		if name == "posts:create" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one posts:create grant, got %d", count)
	}
}

func TestGrantRolePermission_UnknownPermission(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	role := roleByName(t, q, "user")

	req := withUser(newJSONRequest(t, http.MethodPost, "/api/v1/roles/"+int64String(role.ID)+"/permissions",
		`{"permission": "galaxy:rule"}`, map[string]string{"id": int64String(role.ID)}), admin)
	w := executeHandler(t, h.GrantRolePermission, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestRevokeRolePermission(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	role := roleByName(t, q, "user")

	perm, err := q.GetPermissionByName(context.Background(), "posts:create")
	if err != nil {
		t.Fatalf("fetching permission: %v", err)
	}
	if err := q.GrantPermission(context.Background(), store.GrantPermissionParams{
		RoleID:       role.ID,
		PermissionID: perm.ID,
	}); err != nil {
		t.Fatalf("granting permission: %v", err)
	}

	req := withUser(newDeleteRequest(t, "/api/v1/roles/"+int64String(role.ID)+"/permissions/posts:create",
		map[string]string{"id": int64String(role.ID), "name": "posts:create"}), admin)
	w := executeHandler(t, h.RevokeRolePermission, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if slices.Contains(rolePermissionNames(t, q, role.ID), "posts:create") {
		t.Error("expected posts:create to be revoked")
	}
}

func TestRevokeRolePermission_RequiredPair(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	role := roleByName(t, q, "user")
	params := map[string]string{"id": int64String(role.ID), "name": "directory:view"}

	// However often it is attempted, the pair stays granted.
	for range 3 {
		req := withUser(newDeleteRequest(t, "/api/v1/roles/"+int64String(role.ID)+"/permissions/directory:view", params), admin)
		w := executeHandler(t, h.RevokeRolePermission, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", w.Code)
		}
		detail := unmarshalError(t, w)
		if _, ok := detail.Details["permission"]; !ok {
			t.Errorf("expected a permission detail explaining the refusal, got %+v", detail.Details)
		}
		if !slices.Contains(rolePermissionNames(t, q, role.ID), "directory:view") {
			t.Fatal("required permission was revoked")
		}
	}
}

func TestAssignAndRemoveUserRole(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	member := createTestUser(t, q, "member@example.com", false)
	moderator := roleByName(t, q, "moderator")

	req := withUser(newJSONRequest(t, http.MethodPost, "/api/v1/users/"+int64String(member.ID)+"/roles",
		`{"role": "moderator"}`, map[string]string{"id": int64String(member.ID)}), admin)
	w := executeHandler(t, h.AssignUserRole, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	roles, _ := unmarshalList[RoleResponse](t, w)
	if len(roles) != 1 || roles[0].Name != "moderator" {
		t.Fatalf("expected the moderator role, got %+v", roles)
	}

	req = withUser(newDeleteRequest(t, "/api/v1/users/"+int64String(member.ID)+"/roles/"+int64String(moderator.ID),
		map[string]string{"id": int64String(member.ID), "roleID": int64String(moderator.ID)}), admin)
	w = executeHandler(t, h.RemoveUserRole, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	stored, err := q.ListRolesByUser(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("listing user roles: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected no roles after removal, got %+v", stored)
	}
}

func TestAssignUserRole_UnknownRole(t *testing.T) {
	q, h := testSetup(t)
	seedTestRoles(t, h)
	admin := createTestUser(t, q, "admin@example.com", true)
	member := createTestUser(t, q, "member@example.com", false)

	req := withUser(newJSONRequest(t, http.MethodPost, "/api/v1/users/"+int64String(member.ID)+"/roles",
		`{"role": "overlord"}`, map[string]string{"id": int64String(member.ID)}), admin)
	w := executeHandler(t, h.AssignUserRole, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
