// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, name, password_hash, is_admin, email_verified, subscription_status, stripe_customer_id, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.PasswordHash,
		&i.IsAdmin,
		&i.EmailVerified,
		&i.SubscriptionStatus,
		&i.StripeCustomerID,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(
			&i.ID,
			&i.Email,
			&i.Name,
			&i.PasswordHash,
			&i.IsAdmin,
			&i.EmailVerified,
			&i.SubscriptionStatus,
			&i.StripeCustomerID,
			&i.LastLoginAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createUser = `
INSERT INTO users (email, name, password_hash, is_admin, email_verified, subscription_status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email              string
	Name               string
	PasswordHash       string
	IsAdmin            bool
	EmailVerified      bool
	SubscriptionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateUser inserts a new user and returns the created row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.Name,
		arg.PasswordHash,
		arg.IsAdmin,
		arg.EmailVerified,
		arg.SubscriptionStatus,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail fetches a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByStripeCustomerID = `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = ?`

// GetUserByStripeCustomerID fetches a user by their billing customer id.
func (q *Queries) GetUserByStripeCustomerID(ctx context.Context, customerID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByStripeCustomerID, customerID))
}

const listUsers = `
SELECT ` + userColumns + ` FROM users
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListUsersParams holds pagination for ListUsers.
type ListUsersParams struct {
	Limit  int64
	Offset int64
}

// ListUsers returns a page of users, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

const searchUsers = `
SELECT ` + userColumns + ` FROM users
WHERE name LIKE ? OR email LIKE ?
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// SearchUsersParams holds the pattern and pagination for SearchUsers.
type SearchUsersParams struct {
	Query  string
	Limit  int64
	Offset int64
}

// SearchUsers returns users whose name or email matches the pattern.
// Query should already contain LIKE wildcards.
func (q *Queries) SearchUsers(ctx context.Context, arg SearchUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, searchUsers, arg.Query, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const countSearchUsers = `SELECT COUNT(*) FROM users WHERE name LIKE ? OR email LIKE ?`

// CountSearchUsers counts users matching the search pattern.
func (q *Queries) CountSearchUsers(ctx context.Context, query string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSearchUsers, query, query).Scan(&count)
	return count, err
}

const updateUser = `
UPDATE users
SET email = ?, name = ?, is_admin = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserParams holds the fields for UpdateUser.
type UpdateUserParams struct {
	Email     string
	Name      string
	IsAdmin   bool
	UpdatedAt time.Time
	ID        int64
}

// UpdateUser updates profile fields and returns the updated row.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Email,
		arg.Name,
		arg.IsAdmin,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanUser(row)
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateUserPasswordHashParams holds the fields for UpdateUserPasswordHash.
type UpdateUserPasswordHashParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPasswordHash replaces a user's password hash.
func (q *Queries) UpdateUserPasswordHash(ctx context.Context, arg UpdateUserPasswordHashParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPasswordHash, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// UpdateUserLastLoginParams holds the fields for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin stamps the most recent successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLoginAt, arg.ID)
	return err
}

const markUserVerified = `UPDATE users SET email_verified = TRUE, updated_at = ? WHERE id = ?`

// MarkUserVerifiedParams holds the fields for MarkUserVerified.
type MarkUserVerifiedParams struct {
	UpdatedAt time.Time
	ID        int64
}

// MarkUserVerified flags the user's email address as confirmed.
func (q *Queries) MarkUserVerified(ctx context.Context, arg MarkUserVerifiedParams) error {
	_, err := q.db.ExecContext(ctx, markUserVerified, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserSubscription = `
UPDATE users
SET subscription_status = ?, stripe_customer_id = ?, updated_at = ?
WHERE id = ?
`

// UpdateUserSubscriptionParams holds the fields for UpdateUserSubscription.
type UpdateUserSubscriptionParams struct {
	SubscriptionStatus string
	StripeCustomerID   sql.NullString
	UpdatedAt          time.Time
	ID                 int64
}

// UpdateUserSubscription records the user's billing state.
func (q *Queries) UpdateUserSubscription(ctx context.Context, arg UpdateUserSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, updateUserSubscription,
		arg.SubscriptionStatus,
		arg.StripeCustomerID,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user and, via cascades, their tokens and roles.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}
