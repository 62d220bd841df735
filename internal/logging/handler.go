// Package logging provides a custom slog handler that integrates with the audit log.
// It forwards logs at WARN level and above to the database-backed audit trail.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
)

// AuditLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the audit log database.
type AuditLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // Minimum level to forward to the audit log (default: WARN)
}

// NewAuditLogHandler creates a new AuditLogHandler that wraps the given handler.
// Logs at WARN level and above will be written to both the wrapped handler and the audit log.
func NewAuditLogHandler(inner slog.Handler, db *sql.DB) *AuditLogHandler {
	return &AuditLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// NewAuditLogHandlerWithLevel creates a new AuditLogHandler with a custom minimum level.
func NewAuditLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *AuditLogHandler {
	return &AuditLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *AuditLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *AuditLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	// Only write to the audit log if the level is at or above our threshold
	if r.Level >= h.level {
		h.writeAuditEvent(ctx, r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *AuditLogHandler) WithGroup(name string) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// writeAuditEvent writes a log record to the audit log database.
func (h *AuditLogHandler) writeAuditEvent(_ context.Context, r slog.Record) {
	level := h.slogLevelToAuditLevel(r.Level)
	category := h.extractCategory(r)
	metadata := h.extractMetadata(r)

	// Use a background context so the entry is recorded even when the
	// request context is already cancelled
	_ = h.queries.CreateAuditEvent(context.Background(), store.CreateAuditEventParams{
		CreatedAt: r.Time,
		Level:     level,
		Category:  category,
		Message:   r.Message,
		UserID:    sql.NullInt64{}, // No user context available from slog
		Metadata:  sql.NullString{String: metadata, Valid: metadata != ""},
	})
}

// slogLevelToAuditLevel converts a slog.Level to an audit log level.
func (h *AuditLogHandler) slogLevelToAuditLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.AuditLevelError
	case level >= slog.LevelWarn:
		return model.AuditLevelWarning
	default:
		return model.AuditLevelInfo
	}
}

// extractCategory attempts to extract a category from the log record attributes.
// It looks for a "category" attribute or infers from common patterns.
func (h *AuditLogHandler) extractCategory(r slog.Record) string {
	var category string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false // Stop iteration
		}
		return true
	})

	if category != "" {
		return category
	}

	// Try to infer category from the message
	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout"):
		return model.AuditCategoryAuth
	case strings.Contains(msg, "sync"):
		return model.AuditCategorySync
	case strings.Contains(msg, "person") || strings.Contains(msg, "profile"):
		return model.AuditCategoryPerson
	case strings.Contains(msg, "company"):
		return model.AuditCategoryCompany
	case strings.Contains(msg, "event"):
		return model.AuditCategoryEvent
	case strings.Contains(msg, "post") || strings.Contains(msg, "publish"):
		return model.AuditCategoryPost
	case strings.Contains(msg, "media") || strings.Contains(msg, "upload"):
		return model.AuditCategoryMedia
	case strings.Contains(msg, "billing") || strings.Contains(msg, "checkout") || strings.Contains(msg, "subscription"):
		return model.AuditCategoryBilling
	case strings.Contains(msg, "user"):
		return model.AuditCategoryUser
	case strings.Contains(msg, "cache"):
		return model.AuditCategoryCache
	default:
		return model.AuditCategorySystem
	}
}

// extractMetadata collects all log attributes into a JSON string.
func (h *AuditLogHandler) extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return ""
	}

	// Build a simple JSON object from attributes
	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true // Skip category, already extracted
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
