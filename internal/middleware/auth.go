// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/odir-go/internal/service"
	"github.com/olegiv/odir-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// SessionKeyUserID is the session key holding the authenticated user id.
const SessionKeyUserID = "user_id"

// LoadUser creates middleware that loads the session user into the request
// context. Requests without a session pass through anonymously; a session
// pointing at a deleted user is destroyed.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth creates middleware that rejects anonymous requests with a
// JSON 401. It must run after LoadUser.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r) == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that restricts a route to admin users.
// Anonymous requests get 401, authenticated non-admins get 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireAdminWithAudit(nil)
}

// RequireAdminWithAudit is RequireAdmin plus an audit trail entry for every
// denied request when auditService is provided.
func RequireAdminWithAudit(auditService *service.AuditService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if !user.IsAdmin {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"remote_addr", r.RemoteAddr,
				)

				if auditService != nil {
					userID := user.ID
					_ = auditService.LogAuth(r.Context(), "warning", "access denied: admin required", &userID,
						getClientIP(r), map[string]any{
							"method": r.Method,
							"path":   r.URL.Path,
						})
				}

				WriteAPIError(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID from context, or nil if not found.
// Useful for optional user ID parameters in audit logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// GetUserEmail returns the current user's email from context, or empty string if not found.
func GetUserEmail(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.Email
	}
	return ""
}

// IsAdmin reports whether the context user is an administrator.
func IsAdmin(r *http.Request) bool {
	if user := GetUser(r); user != nil {
		return user.IsAdmin
	}
	return false
}
