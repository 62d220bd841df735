// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// CheckoutResponse carries the hosted checkout URL for a new session.
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// BillingSessionResponse is the result of polling a checkout session.
type BillingSessionResponse struct {
	Status             string `json:"status"`
	SubscriptionStatus string `json:"subscription_status"`
}

// BillingStatusResponse is the user's current subscription status.
type BillingStatusResponse struct {
	SubscriptionStatus string `json:"subscription_status"`
}

// CreateCheckout handles POST /api/v1/billing/checkout
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	if !h.billing.Enabled() {
		WriteServiceUnavailable(w, "Billing is not configured")
		return
	}

	sess, err := h.billing.CreateCheckoutSession(ctx, user.Email)
	if err != nil {
		slog.Error("failed to create checkout session", "error", err, "user_id", user.ID)
		WriteBadGateway(w, "Payment provider error")
		return
	}

	now := time.Now()
	if _, err := h.queries.CreateBillingSession(ctx, store.CreateBillingSessionParams{
		UserID:          user.ID,
		StripeSessionID: sess.ID,
		Status:          model.BillingSessionOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		slog.Error("failed to record billing session", "error", err, "session_id", sess.ID)
		WriteInternalError(w, "Failed to record checkout session")
		return
	}

	_ = h.audit.LogBilling(ctx, model.AuditLevelInfo, "checkout session created", &user.ID,
		map[string]any{"session_id": sess.ID})

	WriteCreated(w, CheckoutResponse{SessionID: sess.ID, CheckoutURL: sess.URL})
}

// GetBillingSession handles GET /api/v1/billing/session/{id}
//
// Polls the payment provider for the checkout session state and settles
// the local row: a paid session marks the row complete and activates the
// user's subscription, an expired session marks the row expired. Polling
// a settled session again is a no-op.
func (h *Handler) GetBillingSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	sessionID := chi.URLParam(r, "id")
	row, err := h.queries.GetBillingSessionByStripeID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Checkout session not found")
		} else {
			WriteInternalError(w, "Failed to retrieve checkout session")
		}
		return
	}
	if row.UserID != user.ID && !user.IsAdmin {
		WriteForbidden(w, "Not your checkout session")
		return
	}

	owner, err := h.queries.GetUserByID(ctx, row.UserID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve user")
		return
	}

	// Settled rows are final; skip the upstream call.
	if row.Status != model.BillingSessionOpen {
		WriteSuccess(w, BillingSessionResponse{
			Status:             row.Status,
			SubscriptionStatus: owner.SubscriptionStatus,
		}, nil)
		return
	}

	if !h.billing.Enabled() {
		WriteServiceUnavailable(w, "Billing is not configured")
		return
	}

	state, err := h.billing.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to poll checkout session", "error", err, "session_id", sessionID)
		WriteBadGateway(w, "Payment provider error")
		return
	}

	subscriptionStatus := owner.SubscriptionStatus
	if state.Status != row.Status {
		now := time.Now()
		if err := h.queries.UpdateBillingSessionStatus(ctx, store.UpdateBillingSessionStatusParams{
			Status:    state.Status,
			UpdatedAt: now,
			ID:        row.ID,
		}); err != nil {
			slog.Error("failed to update billing session", "error", err, "session_id", sessionID)
			WriteInternalError(w, "Failed to update checkout session")
			return
		}

		if state.Status == model.BillingSessionComplete {
			if err := h.queries.UpdateUserSubscription(ctx, store.UpdateUserSubscriptionParams{
				SubscriptionStatus: model.SubscriptionActive,
				StripeCustomerID:   util.NullStringFromValue(state.CustomerID),
				UpdatedAt:          now,
				ID:                 row.UserID,
			}); err != nil {
				slog.Error("failed to activate subscription", "error", err, "user_id", row.UserID)
				WriteInternalError(w, "Failed to update subscription")
				return
			}
			subscriptionStatus = model.SubscriptionActive
			_ = h.audit.LogBilling(ctx, model.AuditLevelInfo, "subscription activated", &row.UserID,
				map[string]any{"session_id": sessionID})
		}
	}

	WriteSuccess(w, BillingSessionResponse{
		Status:             state.Status,
		SubscriptionStatus: subscriptionStatus,
	}, nil)
}

// GetBillingStatus handles GET /api/v1/billing/status
func (h *Handler) GetBillingStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	// Re-read so a poll settled in another request is reflected.
	current, err := h.queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve user")
		return
	}

	WriteSuccess(w, BillingStatusResponse{SubscriptionStatus: current.SubscriptionStatus}, nil)
}
