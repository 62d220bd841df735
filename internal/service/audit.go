// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic services, including the audit
// trail writer.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/odir-go/internal/geoip"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
)

// AuditService writes entries to the audit trail. Login events are
// enriched with user agent and GeoIP data.
type AuditService struct {
	queries *store.Queries
	geo     *geoip.Resolver
}

// NewAuditService creates a new AuditService. geo may be a disabled
// resolver; country enrichment is skipped then.
func NewAuditService(db *sql.DB, geo *geoip.Resolver) *AuditService {
	return &AuditService{
		queries: store.New(db),
		geo:     geo,
	}
}

// Log writes one audit event. Metadata is stored as JSON, or NULL when
// empty.
func (s *AuditService) Log(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	var nullMetadata sql.NullString
	if len(metadata) > 0 {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			nullMetadata = sql.NullString{String: string(jsonBytes), Valid: true}
		}
	}

	err := s.queries.CreateAuditEvent(ctx, store.CreateAuditEventParams{
		CreatedAt: time.Now(),
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  nullMetadata,
		IPAddress: sql.NullString{String: ipAddress, Valid: ipAddress != ""},
	})
	if err != nil {
		slog.Error("failed to write audit event", "category", category, "error", err)
		return err
	}

	return nil
}

// LogInfo logs an info-level event.
func (s *AuditService) LogInfo(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.AuditLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *AuditService) LogWarning(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.AuditLevelWarning, category, message, userID, ipAddress, metadata)
}

// LogError logs an error-level event.
func (s *AuditService) LogError(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.AuditLevelError, category, message, userID, ipAddress, metadata)
}

// LogAuth logs an authentication event.
func (s *AuditService) LogAuth(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, level, model.AuditCategoryAuth, message, userID, ipAddress, metadata)
}

// LogUser logs a user-management event.
func (s *AuditService) LogUser(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, level, model.AuditCategoryUser, message, userID, ipAddress, metadata)
}

// LogSync logs a directory sync event.
func (s *AuditService) LogSync(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.Log(ctx, level, model.AuditCategorySync, message, userID, "", metadata)
}

// LogBilling logs a billing event.
func (s *AuditService) LogBilling(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.Log(ctx, level, model.AuditCategoryBilling, message, userID, "", metadata)
}

// LogLogin records a successful login with client enrichment: browser,
// OS and device type from the user agent, country from GeoIP.
func (s *AuditService) LogLogin(ctx context.Context, userID int64, r *http.Request) error {
	ip := clientIP(r)
	metadata := s.clientMetadata(r, ip)
	return s.Log(ctx, model.AuditLevelInfo, model.AuditCategoryAuth, "user logged in", &userID, ip, metadata)
}

// LogFailedLogin records a failed login attempt against an email, with
// the same client enrichment as LogLogin. No user id is recorded since
// the attempt may target a nonexistent account.
func (s *AuditService) LogFailedLogin(ctx context.Context, email string, r *http.Request) error {
	ip := clientIP(r)
	metadata := s.clientMetadata(r, ip)
	metadata["email"] = email
	return s.Log(ctx, model.AuditLevelWarning, model.AuditCategoryAuth, "login failed", nil, ip, metadata)
}

// clientMetadata builds the enrichment map for auth events.
func (s *AuditService) clientMetadata(r *http.Request, ip string) map[string]any {
	parsed := parseUserAgent(r.UserAgent())
	metadata := map[string]any{
		"browser": parsed.Browser,
		"os":      parsed.OS,
		"device":  parsed.Device,
	}
	if s.geo != nil {
		if country := s.geo.Country(ip); country != "" {
			metadata["country"] = country
		}
	}
	return metadata
}

// DeleteOldEvents removes audit events older than the given duration
// and returns the number removed.
func (s *AuditService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteAuditEventsBefore(ctx, cutoff)
}

// parsedUA holds the fields extracted from a User-Agent header.
type parsedUA struct {
	Browser string
	OS      string
	Device  string
}

// parseUserAgent extracts browser, OS and device type from a user agent
// string.
func parseUserAgent(uaString string) parsedUA {
	ua := useragent.Parse(uaString)

	result := parsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.Device = "mobile"
	case ua.Tablet:
		result.Device = "tablet"
	case ua.Bot:
		result.Device = "bot"
	default:
		result.Device = "desktop"
	}

	return result
}

// clientIP extracts the client IP from the request. It respects the
// X-Real-IP and X-Forwarded-For headers set by reverse proxies.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
