// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createRole = `
INSERT INTO roles (name, description, created_at)
VALUES (?, ?, ?)
RETURNING id, name, description, created_at
`

// CreateRoleParams holds the fields for CreateRole.
type CreateRoleParams struct {
	Name        string
	Description string
	CreatedAt   time.Time
}

// CreateRole inserts a new role.
func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	var i Role
	err := q.db.QueryRowContext(ctx, createRole, arg.Name, arg.Description, arg.CreatedAt).
		Scan(&i.ID, &i.Name, &i.Description, &i.CreatedAt)
	return i, err
}

const getRoleByID = `SELECT id, name, description, created_at FROM roles WHERE id = ?`

// GetRoleByID fetches a role by primary key.
func (q *Queries) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	var i Role
	err := q.db.QueryRowContext(ctx, getRoleByID, id).Scan(&i.ID, &i.Name, &i.Description, &i.CreatedAt)
	return i, err
}

const getRoleByName = `SELECT id, name, description, created_at FROM roles WHERE name = ?`

// GetRoleByName fetches a role by its unique name.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	var i Role
	err := q.db.QueryRowContext(ctx, getRoleByName, name).Scan(&i.ID, &i.Name, &i.Description, &i.CreatedAt)
	return i, err
}

const listRoles = `SELECT id, name, description, created_at FROM roles ORDER BY name`

// ListRoles returns all roles ordered by name.
func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Role
	for rows.Next() {
		var i Role
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPermission = `
INSERT INTO permissions (name, description)
VALUES (?, ?)
RETURNING id, name, description
`

// CreatePermissionParams holds the fields for CreatePermission.
type CreatePermissionParams struct {
	Name        string
	Description string
}

// CreatePermission inserts a new permission.
func (q *Queries) CreatePermission(ctx context.Context, arg CreatePermissionParams) (Permission, error) {
	var i Permission
	err := q.db.QueryRowContext(ctx, createPermission, arg.Name, arg.Description).
		Scan(&i.ID, &i.Name, &i.Description)
	return i, err
}

const getPermissionByName = `SELECT id, name, description FROM permissions WHERE name = ?`

// GetPermissionByName fetches a permission by its unique name.
func (q *Queries) GetPermissionByName(ctx context.Context, name string) (Permission, error) {
	var i Permission
	err := q.db.QueryRowContext(ctx, getPermissionByName, name).Scan(&i.ID, &i.Name, &i.Description)
	return i, err
}

const listPermissions = `SELECT id, name, description FROM permissions ORDER BY name`

// ListPermissions returns all permissions ordered by name.
func (q *Queries) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := q.db.QueryContext(ctx, listPermissions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Permission
	for rows.Next() {
		var i Permission
		if err := rows.Scan(&i.ID, &i.Name, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listPermissionsByRole = `
SELECT p.id, p.name, p.description
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = ?
ORDER BY p.name
`

// ListPermissionsByRole returns the permissions attached to a role.
func (q *Queries) ListPermissionsByRole(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := q.db.QueryContext(ctx, listPermissionsByRole, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Permission
	for rows.Next() {
		var i Permission
		if err := rows.Scan(&i.ID, &i.Name, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const grantPermission = `INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)`

// GrantPermissionParams holds the fields for GrantPermission.
type GrantPermissionParams struct {
	RoleID       int64
	PermissionID int64
}

// GrantPermission attaches a permission to a role. Granting an already
// held permission is a no-op.
func (q *Queries) GrantPermission(ctx context.Context, arg GrantPermissionParams) error {
	_, err := q.db.ExecContext(ctx, grantPermission, arg.RoleID, arg.PermissionID)
	return err
}

const revokePermission = `DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`

// RevokePermissionParams holds the fields for RevokePermission.
type RevokePermissionParams struct {
	RoleID       int64
	PermissionID int64
}

// RevokePermission detaches a permission from a role.
func (q *Queries) RevokePermission(ctx context.Context, arg RevokePermissionParams) error {
	_, err := q.db.ExecContext(ctx, revokePermission, arg.RoleID, arg.PermissionID)
	return err
}

const assignRoleToUser = `INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`

// AssignRoleToUserParams holds the fields for AssignRoleToUser.
type AssignRoleToUserParams struct {
	UserID int64
	RoleID int64
}

// AssignRoleToUser gives a user a role. Repeat assignment is a no-op.
func (q *Queries) AssignRoleToUser(ctx context.Context, arg AssignRoleToUserParams) error {
	_, err := q.db.ExecContext(ctx, assignRoleToUser, arg.UserID, arg.RoleID)
	return err
}

const removeRoleFromUser = `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`

// RemoveRoleFromUserParams holds the fields for RemoveRoleFromUser.
type RemoveRoleFromUserParams struct {
	UserID int64
	RoleID int64
}

// RemoveRoleFromUser takes a role away from a user.
func (q *Queries) RemoveRoleFromUser(ctx context.Context, arg RemoveRoleFromUserParams) error {
	_, err := q.db.ExecContext(ctx, removeRoleFromUser, arg.UserID, arg.RoleID)
	return err
}

const listRolesByUser = `
SELECT r.id, r.name, r.description, r.created_at
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = ?
ORDER BY r.name
`

// ListRolesByUser returns the roles held by a user.
func (q *Queries) ListRolesByUser(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listRolesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Role
	for rows.Next() {
		var i Role
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listPermissionNamesByUser = `
SELECT DISTINCT p.name
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = ?
ORDER BY p.name
`

// ListPermissionNamesByUser returns the distinct permission names a
// user holds through their roles.
func (q *Queries) ListPermissionNamesByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPermissionNamesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}
