// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const billingSessionColumns = `id, user_id, stripe_session_id, status, created_at, updated_at`

const createBillingSession = `
INSERT INTO billing_sessions (user_id, stripe_session_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + billingSessionColumns

// CreateBillingSessionParams holds the fields for CreateBillingSession.
type CreateBillingSessionParams struct {
	UserID          int64
	StripeSessionID string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateBillingSession records a newly created checkout session.
func (q *Queries) CreateBillingSession(ctx context.Context, arg CreateBillingSessionParams) (BillingSession, error) {
	var i BillingSession
	err := q.db.QueryRowContext(ctx, createBillingSession,
		arg.UserID,
		arg.StripeSessionID,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	).Scan(&i.ID, &i.UserID, &i.StripeSessionID, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getBillingSessionByStripeID = `
SELECT ` + billingSessionColumns + `
FROM billing_sessions
WHERE stripe_session_id = ?
`

// GetBillingSessionByStripeID fetches a checkout session by its
// provider-side id.
func (q *Queries) GetBillingSessionByStripeID(ctx context.Context, stripeSessionID string) (BillingSession, error) {
	var i BillingSession
	err := q.db.QueryRowContext(ctx, getBillingSessionByStripeID, stripeSessionID).
		Scan(&i.ID, &i.UserID, &i.StripeSessionID, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getLatestBillingSessionForUser = `
SELECT ` + billingSessionColumns + `
FROM billing_sessions
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT 1
`

// GetLatestBillingSessionForUser fetches the user's most recent
// checkout session.
func (q *Queries) GetLatestBillingSessionForUser(ctx context.Context, userID int64) (BillingSession, error) {
	var i BillingSession
	err := q.db.QueryRowContext(ctx, getLatestBillingSessionForUser, userID).
		Scan(&i.ID, &i.UserID, &i.StripeSessionID, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateBillingSessionStatus = `
UPDATE billing_sessions
SET status = ?, updated_at = ?
WHERE id = ?
`

// UpdateBillingSessionStatusParams holds the fields for
// UpdateBillingSessionStatus.
type UpdateBillingSessionStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        int64
}

// UpdateBillingSessionStatus moves a checkout session through its
// lifecycle.
func (q *Queries) UpdateBillingSessionStatus(ctx context.Context, arg UpdateBillingSessionStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateBillingSessionStatus, arg.Status, arg.UpdatedAt, arg.ID)
	return err
}
