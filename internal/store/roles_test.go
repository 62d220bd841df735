// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"testing"
	"time"
)

func TestGrantPermission_Idempotent(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	role, err := q.CreateRole(ctx, CreateRoleParams{Name: "moderator", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	perm, err := q.CreatePermission(ctx, CreatePermissionParams{Name: "posts:moderate"})
	if err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}

	// Granting twice must not fail or duplicate.
	for i := 0; i < 2; i++ {
		if err := q.GrantPermission(ctx, GrantPermissionParams{
			RoleID:       role.ID,
			PermissionID: perm.ID,
		}); err != nil {
			t.Fatalf("GrantPermission (%d): %v", i, err)
		}
	}

	perms, err := q.ListPermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("ListPermissionsByRole: %v", err)
	}
	if len(perms) != 1 {
		t.Errorf("len(perms) = %d, want 1", len(perms))
	}
}

func TestRevokePermission(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	role, err := q.CreateRole(ctx, CreateRoleParams{Name: "sponsor", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	perm, err := q.CreatePermission(ctx, CreatePermissionParams{Name: "company:promote"})
	if err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	if err := q.GrantPermission(ctx, GrantPermissionParams{RoleID: role.ID, PermissionID: perm.ID}); err != nil {
		t.Fatalf("GrantPermission: %v", err)
	}

	if err := q.RevokePermission(ctx, RevokePermissionParams{RoleID: role.ID, PermissionID: perm.ID}); err != nil {
		t.Fatalf("RevokePermission: %v", err)
	}

	perms, err := q.ListPermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("ListPermissionsByRole: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("len(perms) = %d, want 0", len(perms))
	}
}

func TestUserRolesAndPermissions(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "member@example.com")
	now := time.Now()

	userRole, err := q.CreateRole(ctx, CreateRoleParams{Name: "user", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateRole(user): %v", err)
	}
	modRole, err := q.CreateRole(ctx, CreateRoleParams{Name: "moderator", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateRole(moderator): %v", err)
	}

	shared, err := q.CreatePermission(ctx, CreatePermissionParams{Name: "posts:view"})
	if err != nil {
		t.Fatalf("CreatePermission(posts:view): %v", err)
	}
	modOnly, err := q.CreatePermission(ctx, CreatePermissionParams{Name: "posts:moderate"})
	if err != nil {
		t.Fatalf("CreatePermission(posts:moderate): %v", err)
	}

	// Both roles carry the shared permission; only moderator moderates.
	for _, grant := range []GrantPermissionParams{
		{RoleID: userRole.ID, PermissionID: shared.ID},
		{RoleID: modRole.ID, PermissionID: shared.ID},
		{RoleID: modRole.ID, PermissionID: modOnly.ID},
	} {
		if err := q.GrantPermission(ctx, grant); err != nil {
			t.Fatalf("GrantPermission: %v", err)
		}
	}

	for _, assign := range []AssignRoleToUserParams{
		{UserID: user.ID, RoleID: userRole.ID},
		{UserID: user.ID, RoleID: modRole.ID},
	} {
		if err := q.AssignRoleToUser(ctx, assign); err != nil {
			t.Fatalf("AssignRoleToUser: %v", err)
		}
	}

	roles, err := q.ListRolesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRolesByUser: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("len(roles) = %d, want 2", len(roles))
	}

	// Permission names are distinct across roles.
	names, err := q.ListPermissionNamesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListPermissionNamesByUser: %v", err)
	}
	want := []string{"posts:moderate", "posts:view"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	// Removing a role removes its exclusive permissions.
	if err := q.RemoveRoleFromUser(ctx, RemoveRoleFromUserParams{UserID: user.ID, RoleID: modRole.ID}); err != nil {
		t.Fatalf("RemoveRoleFromUser: %v", err)
	}
	names, err = q.ListPermissionNamesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListPermissionNamesByUser (after remove): %v", err)
	}
	if len(names) != 1 || names[0] != "posts:view" {
		t.Errorf("names = %v, want [posts:view]", names)
	}
}
