// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"testing"
)

func TestGetCacheStats(t *testing.T) {
	q, h := testSetup(t)
	admin := createTestUser(t, q, "admin@example.com", true)

	req := withUser(newGetRequest(t, "/api/v1/admin/cache/stats", nil), admin)
	w := executeHandler(t, h.GetCacheStats, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := unmarshalData[CacheStatsResponse](t, w)
	if len(resp.Caches) == 0 {
		t.Error("expected at least one named cache in the stats")
	}
}

func TestClearCache(t *testing.T) {
	q, h := testSetup(t)
	admin := createTestUser(t, q, "admin@example.com", true)

	ctx := context.Background()
	h.cache.Listings.Set(ctx, "people:1:20", []byte(`{"data":[]}`))
	if _, ok := h.cache.Listings.Get(ctx, "people:1:20"); !ok {
		t.Fatal("expected the listing entry before clearing")
	}

	req := withUser(newJSONRequest(t, http.MethodPost, "/api/v1/admin/cache/clear", "", nil), admin)
	w := executeHandler(t, h.ClearCache, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := h.cache.Listings.Get(ctx, "people:1:20"); ok {
		t.Error("expected the listing cache to be empty after clearing")
	}
}
