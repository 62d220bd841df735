package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "odir-logging-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	// Open database
	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	// Run migrations
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	// Return cleanup function
	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listAuditEvents(t *testing.T, db *sql.DB) []store.AuditEvent {
	t.Helper()
	q := store.New(db)
	events, err := q.ListAuditEvents(context.Background(), store.ListAuditEventsParams{
		Limit:  10,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	return events
}

func TestAuditLogHandler_Handle_ErrorLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	// Log an error
	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	// Give it a moment to write
	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Level != model.AuditLevelError {
		t.Errorf("Level = %q, want %q", events[0].Level, model.AuditLevelError)
	}
	if events[0].Message != "database connection failed" {
		t.Errorf("Message = %q, want %q", events[0].Message, "database connection failed")
	}
}

func TestAuditLogHandler_Handle_WarnLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	// Log a warning
	logger.Warn("slow query detected", "duration_ms", 5000)

	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Level != model.AuditLevelWarning {
		t.Errorf("Level = %q, want %q", events[0].Level, model.AuditLevelWarning)
	}
	if events[0].Message != "slow query detected" {
		t.Errorf("Message = %q, want %q", events[0].Message, "slow query detected")
	}
}

func TestAuditLogHandler_Handle_InfoLevel_NotCaptured(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	// Log info level - should NOT be captured
	logger.Info("server started", "port", 8080)

	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 0 {
		t.Errorf("expected 0 events for INFO level, got %d", len(events))
	}
}

func TestAuditLogHandler_Handle_CustomLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	// Create handler with INFO as minimum level
	handler := NewAuditLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo)
	logger := slog.New(handler)

	// Log info level - should now be captured
	logger.Info("server started", "port", 8080)

	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 1 {
		t.Errorf("expected 1 event with custom INFO level, got %d", len(events))
	}
}

func TestAuditLogHandler_CategoryInference(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	testCases := []struct {
		message          string
		expectedCategory string
	}{
		{"user authentication failed", model.AuditCategoryAuth},
		{"login attempt blocked", model.AuditCategoryAuth},
		{"logout completed", model.AuditCategoryAuth},
		{"sync aborted", model.AuditCategorySync},
		{"company claim rejected", model.AuditCategoryCompany},
		{"post publish failed", model.AuditCategoryPost},
		{"checkout session expired", model.AuditCategoryBilling},
		{"disk almost full", model.AuditCategorySystem},
	}

	for _, tc := range testCases {
		// Clear events first
		_, _ = db.Exec("DELETE FROM audit_events")

		logger.Error(tc.message)
		time.Sleep(50 * time.Millisecond)

		events := listAuditEvents(t, db)
		if len(events) != 1 {
			t.Errorf("message %q: expected 1 event, got %d", tc.message, len(events))
			continue
		}

		if events[0].Category != tc.expectedCategory {
			t.Errorf("message %q: Category = %q, want %q", tc.message, events[0].Category, tc.expectedCategory)
		}
	}
}

func TestAuditLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	// A category attribute overrides inference
	logger.Error("something odd happened", "category", model.AuditCategoryMedia)

	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != model.AuditCategoryMedia {
		t.Errorf("Category = %q, want %q", events[0].Category, model.AuditCategoryMedia)
	}
}

func TestAuditLogHandler_Metadata(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	handler := NewAuditLogHandler(discardHandler{}, db)
	logger := slog.New(handler)

	logger.Error("upload rejected", "filename", "too\"big.bin", "size", 999)

	time.Sleep(50 * time.Millisecond)

	events := listAuditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].Metadata.Valid {
		t.Fatal("Metadata should be set")
	}
	meta := events[0].Metadata.String
	if meta == "" || meta[0] != '{' {
		t.Errorf("Metadata = %q, want JSON object", meta)
	}

	// No attributes means no metadata
	_, _ = db.Exec("DELETE FROM audit_events")
	logger.Error("bare message")
	time.Sleep(50 * time.Millisecond)

	events = listAuditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Metadata.Valid {
		t.Errorf("Metadata = %q, want NULL for bare message", events[0].Metadata.String)
	}
}
