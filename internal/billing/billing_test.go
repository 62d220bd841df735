// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/olegiv/odir-go/internal/model"
)

// newTestClient points the Stripe backend at a stub server.
func newTestClient(serverURL string) *Client {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(serverURL),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	api := &client.API{}
	api.Init("sk_test_123", &stripe.Backends{API: backend})

	c := New(Config{SecretKey: "sk_test_123", PriceID: "price_123", BaseURL: "https://odir.example.com/"})
	c.api = api
	return c
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("request = %s %s, want POST /v1/checkout/sessions", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("mode"); got != "subscription" {
			t.Errorf("mode = %q, want subscription", got)
		}
		if got := r.PostForm.Get("line_items[0][price]"); got != "price_123" {
			t.Errorf("price = %q, want price_123", got)
		}
		if got := r.PostForm.Get("customer_email"); got != "member@example.com" {
			t.Errorf("customer_email = %q, want member@example.com", got)
		}
		successURL := r.PostForm.Get("success_url")
		if !strings.HasPrefix(successURL, "https://odir.example.com/billing/success") ||
			!strings.Contains(successURL, "{CHECKOUT_SESSION_ID}") {
			t.Errorf("success_url = %q", successURL)
		}
		if got := r.PostForm.Get("cancel_url"); got != "https://odir.example.com/billing/cancel" {
			t.Errorf("cancel_url = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cs_test_123", "url": "https://checkout.stripe.com/c/pay/cs_test_123", "status": "open", "payment_status": "unpaid"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	sess, err := c.CreateCheckoutSession(context.Background(), "member@example.com")
	if err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}
	if sess.ID != "cs_test_123" {
		t.Errorf("ID = %q, want cs_test_123", sess.ID)
	}
	if sess.URL != "https://checkout.stripe.com/c/pay/cs_test_123" {
		t.Errorf("URL = %q", sess.URL)
	}
}

func TestGetCheckoutSession(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   string
		wantCustomer string
	}{
		{
			name:         "paid maps to complete",
			body:         `{"id": "cs_1", "status": "complete", "payment_status": "paid", "customer": {"id": "cus_42"}}`,
			wantStatus:   model.BillingSessionComplete,
			wantCustomer: "cus_42",
		},
		{
			name:       "expired",
			body:       `{"id": "cs_1", "status": "expired", "payment_status": "unpaid"}`,
			wantStatus: model.BillingSessionExpired,
		},
		{
			name:       "unpaid stays open",
			body:       `{"id": "cs_1", "status": "open", "payment_status": "unpaid"}`,
			wantStatus: model.BillingSessionOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1/checkout/sessions/cs_1" {
					t.Errorf("request = %s %s, want GET /v1/checkout/sessions/cs_1", r.Method, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			state, err := c.GetCheckoutSession(context.Background(), "cs_1")
			if err != nil {
				t.Fatalf("GetCheckoutSession() error = %v", err)
			}
			if state.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", state.Status, tt.wantStatus)
			}
			if state.CustomerID != tt.wantCustomer {
				t.Errorf("CustomerID = %q, want %q", state.CustomerID, tt.wantCustomer)
			}
		})
	}
}

func TestGetCheckoutSession_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "No such checkout session"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.GetCheckoutSession(context.Background(), "cs_missing"); err == nil {
		t.Fatal("GetCheckoutSession() error = nil, want upstream error")
	}
}

func TestEnabled(t *testing.T) {
	if New(Config{}).Enabled() {
		t.Error("Enabled() = true without credentials, want false")
	}
	if New(Config{SecretKey: "sk", PriceID: ""}).Enabled() {
		t.Error("Enabled() = true without price, want false")
	}
	if !New(Config{SecretKey: "sk", PriceID: "price_1"}).Enabled() {
		t.Error("Enabled() = false with credentials, want true")
	}
}
