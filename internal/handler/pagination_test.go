// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		perPage    int
		want       int
	}{
		{"zero items", 0, 10, 1},
		{"less than one page", 5, 10, 1},
		{"exactly one page", 10, 10, 1},
		{"one item over", 11, 10, 2},
		{"multiple pages", 25, 10, 3},
		{"exact multiple", 30, 10, 3},
		{"zero per page", 10, 0, 1},
		{"negative per page", 10, -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotalPages(tt.totalItems, tt.perPage)
			if got != tt.want {
				t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.totalItems, tt.perPage, got, tt.want)
			}
		})
	}
}

func TestParsePageParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"valid page", "page=3", 3},
		{"first page", "page=1", 1},
		{"no param", "", 1},
		{"empty param", "page=", 1},
		{"invalid param", "page=abc", 1},
		{"zero page", "page=0", 1},
		{"negative page", "page=-1", 1},
		{"large page", "page=999", 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := ParsePageParam(req)
			if got != tt.want {
				t.Errorf("ParsePageParam() with query %q = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParsePerPageParam(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		defaultVal int
		maxVal     int
		want       int
	}{
		{"valid value", "per_page=20", 10, 100, 20},
		{"no param uses default", "", 10, 100, 10},
		{"empty param uses default", "per_page=", 10, 100, 10},
		{"invalid uses default", "per_page=abc", 10, 100, 10},
		{"below min uses default", "per_page=0", 10, 100, 10},
		{"above max uses default", "per_page=200", 10, 100, 10},
		{"at max", "per_page=100", 10, 100, 100},
		{"at min", "per_page=1", 10, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := ParsePerPageParam(req, tt.defaultVal, tt.maxVal)
			if got != tt.want {
				t.Errorf("ParsePerPageParam() with query %q = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		param      string
		defaultVal int
		minVal     int
		maxVal     int
		want       int
	}{
		{"valid value", "limit=50", "limit", 10, 1, 100, 50},
		{"missing param", "", "limit", 10, 1, 100, 10},
		{"empty value", "limit=", "limit", 10, 1, 100, 10},
		{"invalid value", "limit=abc", "limit", 10, 1, 100, 10},
		{"below min", "limit=0", "limit", 10, 1, 100, 10},
		{"above max", "limit=200", "limit", 10, 1, 100, 10},
		{"no min check", "limit=0", "limit", 10, 0, 100, 0},
		{"no max check", "limit=500", "limit", 10, 1, 0, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := ParseIntParam(req, tt.param, tt.defaultVal, tt.minVal, tt.maxVal)
			if got != tt.want {
				t.Errorf("ParseIntParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseQueryInt64(t *testing.T) {
	tests := []struct {
		name  string
		query string
		param string
		want  int64
	}{
		{"valid value", "user_id=456", "user_id", 456},
		{"missing param", "", "user_id", 0},
		{"empty value", "user_id=", "user_id", 0},
		{"invalid value", "user_id=xyz", "user_id", 0},
		{"zero value", "user_id=0", "user_id", 0},
		{"negative value", "user_id=-4", "user_id", 0},
		{"large value", "user_id=9999999999", "user_id", 9999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := ParseQueryInt64(req, tt.param)
			if got != tt.want {
				t.Errorf("ParseQueryInt64() with query %q = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int64
		wantErr bool
	}{
		{"valid id", "123", 123, false},
		{"zero id", "0", 0, false},
		{"large id", "9999999999", 9999999999, false},
		{"empty id", "", 0, true},
		{"invalid id", "abc", 0, true},
		{"negative id", "-1", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := ParseIDParam(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseIDParam() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseIDParam() = %d, want %d", got, tt.want)
			}
		})
	}
}
