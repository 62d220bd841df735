// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createVerificationToken = `
INSERT INTO verification_tokens (token, user_id, expires_at, created_at)
VALUES (?, ?, ?, ?)
`

// CreateVerificationTokenParams holds the fields for CreateVerificationToken.
type CreateVerificationTokenParams struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateVerificationToken stores a new email verification token.
func (q *Queries) CreateVerificationToken(ctx context.Context, arg CreateVerificationTokenParams) error {
	_, err := q.db.ExecContext(ctx, createVerificationToken, arg.Token, arg.UserID, arg.ExpiresAt, arg.CreatedAt)
	return err
}

const getVerificationToken = `
SELECT token, user_id, expires_at, created_at
FROM verification_tokens
WHERE token = ?
`

// GetVerificationToken fetches a token by value.
func (q *Queries) GetVerificationToken(ctx context.Context, token string) (VerificationToken, error) {
	var i VerificationToken
	err := q.db.QueryRowContext(ctx, getVerificationToken, token).Scan(
		&i.Token,
		&i.UserID,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
	return i, err
}

const deleteVerificationToken = `DELETE FROM verification_tokens WHERE token = ?`

// DeleteVerificationToken removes a consumed token.
func (q *Queries) DeleteVerificationToken(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, deleteVerificationToken, token)
	return err
}

const deleteVerificationTokensForUser = `DELETE FROM verification_tokens WHERE user_id = ?`

// DeleteVerificationTokensForUser removes all tokens issued to a user.
func (q *Queries) DeleteVerificationTokensForUser(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteVerificationTokensForUser, userID)
	return err
}

const deleteExpiredVerificationTokens = `DELETE FROM verification_tokens WHERE expires_at < ?`

// DeleteExpiredVerificationTokens removes tokens past their expiry and
// returns the number deleted.
func (q *Queries) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredVerificationTokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
