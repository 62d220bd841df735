// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/odir-go/internal/billing"
	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/mailer"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/service"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/syncer"
	"github.com/olegiv/odir-go/internal/unsplash"
)

// testDB creates a migrated temporary database for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "odir-api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("opening test database: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return db
}

// testSetup creates a test database and a fully wired API handler.
// External clients are built unconfigured, so billing, image search and
// mail delivery report themselves disabled.
func testSetup(t *testing.T) (*store.Queries, *Handler) {
	t.Helper()

	db := testDB(t)
	queries := store.New(db)

	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	cm := cache.NewManager(queries, cache.NewMemoryCacheWithTTL(time.Minute), time.Minute)
	t.Cleanup(func() {
		_ = cm.Close()
	})

	h := NewHandler(db, sm, cm, service.NewAuditService(db, nil), nil,
		billing.New(billing.Config{}), unsplash.New(""), mailer.New(mailer.Config{}),
		syncer.NewRunner(queries, cm))
	return queries, h
}

// createTestUser creates a verified user for tests. The password hash is
// a placeholder; tests exercising login hash a real password themselves.
func createTestUser(t *testing.T, q *store.Queries, email string, isAdmin bool) store.User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:              email,
		Name:               "Test User",
		PasswordHash:       "not-a-real-hash",
		IsAdmin:            isAdmin,
		EmailVerified:      true,
		SubscriptionStatus: "none",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// createTestPerson creates a directory person for tests.
func createTestPerson(t *testing.T, q *store.Queries, name, slug string) store.Person {
	t.Helper()

	now := time.Now()
	person, err := q.CreatePerson(context.Background(), store.CreatePersonParams{
		Slug:      slug,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test person: %v", err)
	}
	return person
}

// createTestCompany creates a company for tests.
func createTestCompany(t *testing.T, q *store.Queries, name, slug string) store.Company {
	t.Helper()

	now := time.Now()
	company, err := q.CreateCompany(context.Background(), store.CreateCompanyParams{
		Slug:      slug,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test company: %v", err)
	}
	return company
}

// createTestEvent creates an event starting at the given time.
func createTestEvent(t *testing.T, q *store.Queries, name, slug string, startsAt time.Time) store.Event {
	t.Helper()

	now := time.Now()
	event, err := q.CreateEvent(context.Background(), store.CreateEventParams{
		Slug:      slug,
		Name:      name,
		StartsAt:  startsAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test event: %v", err)
	}
	return event
}

// createTestPost creates a post with the given status for tests.
func createTestPost(t *testing.T, q *store.Queries, title, slug, status string, authorID int64) store.Post {
	t.Helper()

	now := time.Now()
	post, err := q.CreatePost(context.Background(), store.CreatePostParams{
		Slug:      slug,
		Title:     title,
		Body:      "Test body",
		BodyHTML:  "<p>Test body</p>",
		Status:    status,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test post: %v", err)
	}
	if status == "published" {
		published, err := q.SetPostStatus(context.Background(), store.SetPostStatusParams{
			Status:      status,
			PublishedAt: sql.NullTime{Time: now, Valid: true},
			UpdatedAt:   now,
			ID:          post.ID,
		})
		if err != nil {
			t.Fatalf("publishing test post: %v", err)
		}
		return published
	}
	return post
}

// createTestTag creates a tag for tests.
func createTestTag(t *testing.T, q *store.Queries, name, slug string) store.Tag {
	t.Helper()

	tag, err := q.CreateTag(context.Background(), store.CreateTagParams{
		Slug:      slug,
		Name:      name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating test tag: %v", err)
	}
	return tag
}

// withUser injects an authenticated user into the request context the way
// middleware.LoadUser does after resolving a session.
func withUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// withSession attaches empty session data to the request so handlers can
// call session methods outside the LoadAndSave middleware.
func withSession(t *testing.T, h *Handler, r *http.Request) *http.Request {
	t.Helper()
	ctx, err := h.sessions.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return r.WithContext(ctx)
}

// int64String formats an ID for use as a chi URL parameter.
func int64String(id int64) string {
	return strconv.FormatInt(id, 10)
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path string, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newDeleteRequest creates an HTTP DELETE request with optional URL params.
func newDeleteRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// listResponse is a generic wrapper for API list responses with data and meta.
type listResponse[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}

// unmarshalList unmarshals a JSON list response body into the specified type.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) ([]T, *Meta) {
	t.Helper()
	var resp listResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data, resp.Meta
}

// unmarshalError unmarshals a JSON error response body.
func unmarshalError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	return resp.Error
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}
