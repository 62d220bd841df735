// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/olegiv/odir-go/internal/auth"
	"github.com/olegiv/odir-go/internal/store"
)

func TestRegister(t *testing.T) {
	_, h := testSetup(t)

	body := `{"email": "new@example.com", "name": "New Member", "password": "hunter2hunter2"}`
	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil)
	w := executeHandler(t, h.Register, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	user := unmarshalData[UserResponse](t, w)
	if user.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "new@example.com")
	}
	if user.Name != "New Member" {
		t.Errorf("Name = %q, want %q", user.Name, "New Member")
	}
	if user.IsAdmin {
		t.Error("new registrations must not be admins")
	}
	if user.EmailVerified {
		t.Error("new registrations must start unverified")
	}
	if user.SubscriptionStatus != "none" {
		t.Errorf("SubscriptionStatus = %q, want %q", user.SubscriptionStatus, "none")
	}
}

func TestRegister_Validation(t *testing.T) {
	_, h := testSetup(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing email", `{"name": "A B", "password": "hunter2hunter2"}`, "email"},
		{"invalid email", `{"email": "not-an-email", "name": "A B", "password": "hunter2hunter2"}`, "email"},
		{"missing name", `{"email": "a@example.com", "password": "hunter2hunter2"}`, "name"},
		{"missing password", `{"email": "a@example.com", "name": "A B"}`, "password"},
		{"short password", `{"email": "a@example.com", "name": "A B", "password": "short"}`, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", tt.body, nil)
			w := executeHandler(t, h.Register, req)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
			}
			detail := unmarshalError(t, w)
			if _, ok := detail.Details[tt.field]; !ok {
				t.Errorf("expected validation detail for field %q, got %v", tt.field, detail.Details)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	q, h := testSetup(t)

	createTestUser(t, q, "taken@example.com", false)

	body := `{"email": "taken@example.com", "name": "Second", "password": "hunter2hunter2"}`
	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil)
	w := executeHandler(t, h.Register, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestRegister_InvalidJSON(t *testing.T) {
	_, h := testSetup(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", `{invalid`, nil)
	w := executeHandler(t, h.Register, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// createUnverifiedUser inserts a user that has not confirmed their email.
func createUnverifiedUser(t *testing.T, q *store.Queries, email, passwordHash string) store.User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:              email,
		Name:               "Unverified User",
		PasswordHash:       passwordHash,
		SubscriptionStatus: "none",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		t.Fatalf("creating unverified user: %v", err)
	}
	return user
}

// createToken inserts a verification token expiring at the given time.
func createToken(t *testing.T, q *store.Queries, token string, userID int64, expiresAt time.Time) {
	t.Helper()

	if err := q.CreateVerificationToken(context.Background(), store.CreateVerificationTokenParams{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("creating verification token: %v", err)
	}
}

func TestVerify(t *testing.T) {
	q, h := testSetup(t)

	user := createUnverifiedUser(t, q, "pending@example.com", "hash")
	createToken(t, q, "tok-verify", user.ID, time.Now().Add(time.Hour))

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", `{"token": "tok-verify"}`, nil)
	w := executeHandler(t, h.Verify, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := unmarshalData[UserResponse](t, w)
	if !resp.EmailVerified {
		t.Error("response should show the user as verified")
	}

	found, err := q.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !found.EmailVerified {
		t.Error("user should be verified in the database")
	}

	// Tokens are single use.
	req = newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", `{"token": "tok-verify"}`, nil)
	w = executeHandler(t, h.Verify, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("second use: status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	q, h := testSetup(t)

	user := createUnverifiedUser(t, q, "late@example.com", "hash")
	createToken(t, q, "tok-expired", user.ID, time.Now().Add(-time.Hour))

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", `{"token": "tok-expired"}`, nil)
	w := executeHandler(t, h.Verify, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestVerify_UnknownToken(t *testing.T) {
	_, h := testSetup(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", `{"token": "no-such-token"}`, nil)
	w := executeHandler(t, h.Verify, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestVerify_LinksPersonProfile(t *testing.T) {
	q, h := testSetup(t)

	ctx := context.Background()
	now := time.Now()
	person, err := q.CreatePerson(ctx, store.CreatePersonParams{
		Slug:      "jane-doe",
		Name:      "Jane Doe",
		Email:     sql.NullString{String: "jane@example.com", Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}

	user := createUnverifiedUser(t, q, "jane@example.com", "hash")
	createToken(t, q, "tok-jane", user.ID, now.Add(time.Hour))

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", `{"token": "tok-jane"}`, nil)
	w := executeHandler(t, h.Verify, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	linked, err := q.GetPersonBySlug(ctx, person.Slug)
	if err != nil {
		t.Fatalf("GetPersonBySlug: %v", err)
	}
	if !linked.UserID.Valid || linked.UserID.Int64 != user.ID {
		t.Errorf("person.UserID = %v, want %d", linked.UserID, user.ID)
	}
}

// createLoginUser inserts a verified user with a real password hash.
func createLoginUser(t *testing.T, q *store.Queries, email, password string) store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	now := time.Now()
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:              email,
		Name:               "Login User",
		PasswordHash:       hash,
		EmailVerified:      true,
		SubscriptionStatus: "none",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		t.Fatalf("creating login user: %v", err)
	}
	return user
}

func TestLogin(t *testing.T) {
	q, h := testSetup(t)

	createLoginUser(t, q, "member@example.com", "correct-horse-battery")

	body := `{"email": "member@example.com", "password": "correct-horse-battery"}`
	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", body, nil))
	w := executeHandler(t, h.Login, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := unmarshalData[UserResponse](t, w)
	if resp.Email != "member@example.com" {
		t.Errorf("Email = %q, want %q", resp.Email, "member@example.com")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	q, h := testSetup(t)

	createLoginUser(t, q, "member@example.com", "correct-horse-battery")

	body := `{"email": "member@example.com", "password": "wrong-password-here"}`
	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", body, nil))
	w := executeHandler(t, h.Login, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if msg := unmarshalError(t, w).Message; msg != "Invalid email or password" {
		t.Errorf("message = %q, want generic credentials message", msg)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, h := testSetup(t)

	body := `{"email": "ghost@example.com", "password": "whatever-password"}`
	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", body, nil))
	w := executeHandler(t, h.Login, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	// Unknown accounts and bad passwords must be indistinguishable.
	if msg := unmarshalError(t, w).Message; msg != "Invalid email or password" {
		t.Errorf("message = %q, want generic credentials message", msg)
	}
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	q, h := testSetup(t)

	hash, err := auth.HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	createUnverifiedUser(t, q, "pending@example.com", hash)

	body := `{"email": "pending@example.com", "password": "correct-horse-battery"}`
	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", body, nil))
	w := executeHandler(t, h.Login, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	q, h := testSetup(t)

	user := createLoginUser(t, q, "member@example.com", "correct-horse-battery")
	if user.LastLoginAt.Valid {
		t.Fatal("fresh user should have no last login")
	}

	body := `{"email": "member@example.com", "password": "correct-horse-battery"}`
	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", body, nil))
	w := executeHandler(t, h.Login, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	found, err := q.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !found.LastLoginAt.Valid {
		t.Error("LastLoginAt should be set after login")
	}
}

func TestLogout(t *testing.T) {
	q, h := testSetup(t)

	user := createTestUser(t, q, "member@example.com", false)

	req := withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/logout", "", nil))
	req = withUser(req, user)
	w := executeHandler(t, h.Logout, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestMe(t *testing.T) {
	q, h := testSetup(t)

	user := createTestUser(t, q, "member@example.com", false)

	req := withUser(newGetRequest(t, "/api/v1/auth/me", nil), user)
	w := executeHandler(t, h.Me, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := unmarshalData[UserResponse](t, w)
	if resp.ID != user.ID {
		t.Errorf("ID = %d, want %d", resp.ID, user.ID)
	}
}

func TestMe_Anonymous(t *testing.T) {
	_, h := testSetup(t)

	w := executeHandler(t, h.Me, newGetRequest(t, "/api/v1/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	q, h := testSetup(t)

	body := `{"email": "flow@example.com", "name": "Flow User", "password": "hunter2hunter2"}`
	w := executeHandler(t, h.Register, newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, want %d", w.Code, http.StatusCreated)
	}

	// Login before verification is rejected.
	loginBody := `{"email": "flow@example.com", "password": "hunter2hunter2"}`
	w = executeHandler(t, h.Login, withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", loginBody, nil)))
	if w.Code != http.StatusForbidden {
		t.Fatalf("unverified login: status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Verify via a token injected directly, then login succeeds.
	user, err := q.GetUserByEmail(context.Background(), "flow@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	createToken(t, q, "tok-flow", user.ID, time.Now().Add(time.Hour))
	verifyBody := fmt.Sprintf(`{"token": %q}`, "tok-flow")
	w = executeHandler(t, h.Verify, newJSONRequest(t, http.MethodPost, "/api/v1/auth/verify", verifyBody, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("verify: status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	w = executeHandler(t, h.Login, withSession(t, h, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", loginBody, nil)))
	if w.Code != http.StatusOK {
		t.Errorf("verified login: status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}
