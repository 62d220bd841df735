// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/olegiv/odir-go/internal/auth"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// verificationTokenLifetime bounds how long an emailed verification link
// stays valid.
const verificationTokenLifetime = 48 * time.Hour

// RegisterRequest represents the request body for registering an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// VerifyRequest represents the request body for verifying an email address.
type VerifyRequest struct {
	Token string `json:"token"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user account in API responses.
type UserResponse struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	IsAdmin            bool       `json:"is_admin"`
	EmailVerified      bool       `json:"email_verified"`
	SubscriptionStatus string     `json:"subscription_status"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// storeUserToResponse converts a store.User to UserResponse.
func storeUserToResponse(u store.User) UserResponse {
	resp := UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		IsAdmin:            u.IsAdmin,
		EmailVerified:      u.EmailVerified,
		SubscriptionStatus: u.SubscriptionStatus,
		CreatedAt:          u.CreatedAt,
	}
	if u.LastLoginAt.Valid {
		resp.LastLoginAt = &u.LastLoginAt.Time
	}
	return resp
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	validationErrors := make(map[string]string)

	if req.Email == "" {
		validationErrors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		validationErrors["email"] = "Invalid email format"
	}

	if req.Name == "" {
		validationErrors["name"] = "Name is required"
	}

	if req.Password == "" {
		validationErrors["password"] = "Password is required"
	} else if len(req.Password) < model.MinPasswordLength {
		validationErrors["password"] = "Password must be at least 8 characters"
	}

	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	// Duplicate email is a conflict, not a validation failure
	if _, err := h.queries.GetUserByEmail(ctx, req.Email); err == nil {
		WriteConflict(w, "Email already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("database error checking email", "error", err)
		WriteInternalError(w, "Failed to register")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hash error", "error", err)
		WriteInternalError(w, "Failed to register")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Email:              req.Email,
		Name:               req.Name,
		PasswordHash:       passwordHash,
		IsAdmin:            false,
		EmailVerified:      false,
		SubscriptionStatus: model.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		WriteInternalError(w, "Failed to register")
		return
	}

	token, err := generateToken()
	if err != nil {
		slog.Error("failed to generate verification token", "error", err)
		WriteInternalError(w, "Failed to register")
		return
	}

	if err := h.queries.CreateVerificationToken(ctx, store.CreateVerificationTokenParams{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(verificationTokenLifetime),
		CreatedAt: now,
	}); err != nil {
		slog.Error("failed to store verification token", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to register")
		return
	}

	if err := h.mailer.SendVerification(user.Email, user.Name, token); err != nil {
		// The account exists; the user can request a resend later
		slog.Error("failed to send verification email", "error", err, "user_id", user.ID)
	}

	_ = h.audit.LogAuth(ctx, model.AuditLevelInfo, "user registered", &user.ID, util.ClientIP(r),
		map[string]any{"email": user.Email})

	WriteCreated(w, storeUserToResponse(user))
}

// Verify handles POST /api/v1/auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Token == "" {
		WriteValidationError(w, map[string]string{"token": "Token is required"})
		return
	}

	token, err := h.queries.GetVerificationToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteValidationError(w, map[string]string{"token": "Unknown or already used token"})
		} else {
			WriteInternalError(w, "Failed to verify")
		}
		return
	}

	if time.Now().After(token.ExpiresAt) {
		WriteValidationError(w, map[string]string{"token": "Token has expired"})
		return
	}

	user, err := h.queries.GetUserByID(ctx, token.UserID)
	if err != nil {
		WriteInternalError(w, "Failed to verify")
		return
	}

	now := time.Now()
	if err := h.queries.MarkUserVerified(ctx, store.MarkUserVerifiedParams{
		UpdatedAt: now,
		ID:        user.ID,
	}); err != nil {
		WriteInternalError(w, "Failed to verify")
		return
	}

	if err := h.queries.DeleteVerificationTokensForUser(ctx, user.ID); err != nil {
		slog.Error("failed to delete verification tokens", "error", err, "user_id", user.ID)
	}

	// Attach the matching directory profile, if one was synced before
	// the user signed up
	linked, err := h.queries.LinkPersonToUser(ctx, store.LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: now,
		Email:     user.Email,
	})
	if err != nil {
		slog.Error("failed to link person profile", "error", err, "user_id", user.ID)
	} else if linked > 0 {
		h.cache.InvalidatePeople(ctx)
	}

	_ = h.audit.LogAuth(ctx, model.AuditLevelInfo, "email verified", &user.ID, util.ClientIP(r),
		map[string]any{"email": user.Email, "profile_linked": linked > 0})

	user.EmailVerified = true
	WriteSuccess(w, storeUserToResponse(user), nil)
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"credentials": "Email and password are required"})
		return
	}

	user, err := h.queries.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Hash anyway so unknown emails take as long as bad passwords
			_, _ = auth.CheckPassword(req.Password, auth.DummyHash)
			_ = h.audit.LogFailedLogin(ctx, req.Email, r)
			WriteUnauthorized(w, "Invalid email or password")
		} else {
			slog.Error("database error during login", "error", err)
			WriteInternalError(w, "Failed to log in")
		}
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}
	if !valid {
		_ = h.audit.LogFailedLogin(ctx, req.Email, r)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	if !user.EmailVerified {
		WriteForbidden(w, "Email address not verified")
		return
	}

	// Re-hash when the stored hash uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPasswordHash(ctx, store.UpdateUserPasswordHashParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessions.RenewToken(ctx); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w, "Failed to log in")
		return
	}
	h.sessions.Put(ctx, middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	_ = h.audit.LogLogin(ctx, user.ID, r)

	WriteSuccess(w, storeUserToResponse(user), nil)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if user := middleware.GetUser(r); user != nil {
		_ = h.audit.LogAuth(ctx, model.AuditLevelInfo, "user logged out", &user.ID, util.ClientIP(r), nil)
	}

	if err := h.sessions.Destroy(ctx); err != nil {
		slog.Error("session destroy error", "error", err)
		WriteInternalError(w, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, storeUserToResponse(*user), nil)
}

// generateToken returns a 64 character hex token from a CSPRNG.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
