// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package billing creates and polls Stripe Checkout sessions for the
// membership subscription. Subscription state is obtained exclusively
// by polling sessions; there is no webhook receiver.
package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/olegiv/odir-go/internal/model"
)

// Config carries the processor credentials and the base URL the
// checkout redirect targets are built on.
type Config struct {
	SecretKey string
	PriceID   string
	BaseURL   string
}

// Client wraps the Stripe API for checkout session operations.
type Client struct {
	api     *client.API
	priceID string
	baseURL string
	enabled bool
}

// New creates a Client. With an empty secret key or price the client
// reports disabled and its calls must not be reached.
func New(cfg Config) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Client{
		api:     api,
		priceID: cfg.PriceID,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		enabled: cfg.SecretKey != "" && cfg.PriceID != "",
	}
}

// Enabled reports whether processor credentials are configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// CheckoutSession is a newly created hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionState is a polled checkout session reduced to the local
// billing_sessions lifecycle.
type SessionState struct {
	ID         string
	Status     string
	CustomerID string
}

// CreateCheckoutSession starts a subscription checkout for the
// configured price with the customer email prefilled, and returns the
// hosted checkout URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerEmail string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(c.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(c.baseURL + "/billing/cancel"),
		CustomerEmail: stripe.String(customerEmail),
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutSession polls a checkout session and maps it onto the
// local lifecycle: expired sessions are expired, paid sessions are
// complete, everything else is still open.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	state := &SessionState{ID: sess.ID, Status: model.BillingSessionOpen}
	if sess.Customer != nil {
		state.CustomerID = sess.Customer.ID
	}
	switch {
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		state.Status = model.BillingSessionExpired
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		state.Status = model.BillingSessionComplete
	}
	return state, nil
}
