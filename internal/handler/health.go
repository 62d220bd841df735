// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/storage"
	"github.com/olegiv/odir-go/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	objects   *storage.ObjectStore
	version   *version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, objects *storage.ObjectStore, versionInfo *version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		objects:   objects,
		version:   versionInfo,
		startTime: time.Now(),
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatusPublic is the minimal health response for unauthenticated callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (authenticated callers only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health requests.
// Returns minimal status for unauthenticated callers, full details for admins.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	storageCheck := h.checkObjectStore(r.Context())

	allHealthy := dbCheck.Status == "healthy" && storageCheck.Status == "healthy"

	overallStatus := "healthy"
	if !allHealthy {
		overallStatus = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	user := middleware.GetUser(r)

	// Unauthenticated callers get minimal response
	if user == nil {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{
			Status: overallStatus,
		})
		return
	}

	// Authenticated non-admin: basic response without check details
	if !user.IsAdmin {
		_ = json.NewEncoder(w).Encode(HealthStatus{
			Status:    overallStatus,
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(h.startTime).Round(time.Second).String(),
			Version:   h.versionString(),
		})
		return
	}

	// Admin only: full details including checks and optional system info
	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.versionString(),
		Checks: map[string]Check{
			"database":     dbCheck,
			"object_store": storageCheck,
		},
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.System = h.getSystemInfo()
	}

	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	w.Header().Set("Content-Type", "application/json")

	if dbCheck.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		resp := map[string]string{
			"status": "not_ready",
		}
		// Only include error details for authenticated callers
		if middleware.GetUser(r) != nil {
			resp["message"] = dbCheck.Message
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *HealthHandler) versionString() string {
	if h.version == nil || h.version.Version == "" {
		return "dev"
	}
	return h.version.Version
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()

	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkObjectStore verifies the media bucket is reachable.
func (h *HealthHandler) checkObjectStore(ctx context.Context) Check {
	if h.objects == nil {
		return Check{
			Status:  "unhealthy",
			Message: "Object store not configured",
		}
	}

	start := time.Now()
	err := h.objects.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Bucket " + h.objects.Bucket() + " reachable",
		Latency: latency.String(),
	}
}

// getSystemInfo returns system-level metrics.
func (h *HealthHandler) getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
