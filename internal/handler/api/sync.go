// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/syncer"
)

// syncEvent is one line of the reset & sync progress stream.
type syncEvent struct {
	Type    string         `json:"type"`
	Stage   string         `json:"stage,omitempty"`
	Current int            `json:"current,omitempty"`
	Total   int            `json:"total,omitempty"`
	Message string         `json:"message,omitempty"`
	Result  *syncer.Result `json:"result,omitempty"`
}

// SyncSourceResponse describes a registered sync source.
type SyncSourceResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Configured  bool   `json:"configured"`
}

// ListSyncSources handles GET /api/v1/admin/sync/sources
func (h *Handler) ListSyncSources(w http.ResponseWriter, r *http.Request) {
	sources := h.syncer.Sources()
	responses := make([]SyncSourceResponse, len(sources))
	for i, s := range sources {
		responses[i] = SyncSourceResponse{
			Name:        s.Name(),
			Description: s.Description(),
			Configured:  s.CheckConfig() == nil,
		}
	}
	WriteSuccess(w, responses, nil)
}

// syncStream serializes event writes to the response. Once a write
// fails the client is gone and further events are discarded; the import
// itself keeps running.
type syncStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	dead    bool
}

func (s *syncStream) send(ev syncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if _, err := s.w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		s.dead = true
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// RunSync handles POST /api/v1/admin/sync
//
// Starts the reset & sync job and streams progress down the open
// response. The stream always terminates with exactly one complete or
// error event. A second invocation while a run holds the lock gets 409
// before any event is written.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	sourceName := r.URL.Query().Get("source")
	if sourceName == "" {
		sourceName = "luma"
	}

	source, ok := h.syncer.Get(sourceName)
	if !ok {
		WriteNotFound(w, "Unknown sync source")
		return
	}
	if err := source.CheckConfig(); err != nil {
		WriteServiceUnavailable(w, "Sync source is not configured: "+err.Error())
		return
	}
	if h.syncer.Running() {
		WriteConflict(w, "A sync is already running")
		return
	}

	userID := middleware.GetUserIDPtr(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	stream := &syncStream{w: w, flusher: flusher}

	stream.send(syncEvent{Type: "status", Message: "starting sync from " + source.Name()})

	// The import continues even if the client disconnects; progress to
	// a gone client is simply unobserved.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.syncer.Run(ctx, sourceName, func(stage string, current, total int, message string) {
		stream.send(syncEvent{Type: "progress", Stage: stage, Current: current, Total: total, Message: message})
	})
	if err != nil {
		// Lost the lock race to a run that started after the check
		// above; report it on the stream like any other failure.
		if errors.Is(err, syncer.ErrRunning) {
			stream.send(syncEvent{Type: "error", Message: "a sync is already running"})
			return
		}
		slog.Error("sync failed", "source", sourceName, "error", err)
		_ = h.audit.LogSync(r.Context(), model.AuditLevelError, "sync failed", userID,
			map[string]any{"source": sourceName, "error": err.Error()})
		stream.send(syncEvent{Type: "error", Message: err.Error()})
		return
	}

	_ = h.audit.LogSync(r.Context(), model.AuditLevelInfo, "sync complete", userID,
		map[string]any{
			"source":    sourceName,
			"events":    result.Events,
			"people":    result.People,
			"companies": result.Companies,
		})
	stream.send(syncEvent{Type: "complete", Result: result})
}
