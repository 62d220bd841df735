package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/photos" {
			t.Errorf("path = %q, want /search/photos", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID access-key" {
			t.Errorf("Authorization = %q, want Client-ID access-key", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "sunset" || q.Get("page") != "2" || q.Get("per_page") != "5" {
			t.Errorf("query params = %v", q)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 120,
			"total_pages": 24,
			"results": [
				{
					"id": "abc123",
					"description": null,
					"alt_description": "orange sky over the sea",
					"urls": {"thumb": "https://img/t.jpg", "small": "https://img/s.jpg", "regular": "https://img/r.jpg"},
					"user": {"name": "Jordan Lee", "links": {"html": "https://unsplash.com/@jordan"}},
					"links": {"download_location": "https://api.unsplash.com/photos/abc123/download"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := New("access-key")
	client.baseURL = server.URL

	result, err := client.Search(context.Background(), "sunset", 2, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Total != 120 || result.TotalPages != 24 {
		t.Errorf("totals = %d/%d, want 120/24", result.Total, result.TotalPages)
	}
	if len(result.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(result.Results))
	}

	photo := result.Results[0]
	if photo.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", photo.ID)
	}
	if photo.Description != "orange sky over the sea" {
		t.Errorf("Description = %q, want alt_description fallback", photo.Description)
	}
	if photo.ThumbURL != "https://img/t.jpg" || photo.RegularURL != "https://img/r.jpg" {
		t.Errorf("urls = %q, %q, %q", photo.ThumbURL, photo.SmallURL, photo.RegularURL)
	}
	if photo.PhotographerName != "Jordan Lee" || photo.PhotographerLink != "https://unsplash.com/@jordan" {
		t.Errorf("photographer = %q (%q)", photo.PhotographerName, photo.PhotographerLink)
	}
	if photo.DownloadLocation != "https://api.unsplash.com/photos/abc123/download" {
		t.Errorf("DownloadLocation = %q", photo.DownloadLocation)
	}
}

func TestSearch_ClampsParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "1" {
			t.Errorf("page = %q, want clamped to 1", q.Get("page"))
		}
		if q.Get("per_page") != "30" {
			t.Errorf("per_page = %q, want clamped to 30", q.Get("per_page"))
		}
		_, _ = w.Write([]byte(`{"total": 0, "total_pages": 0, "results": []}`))
	}))
	defer server.Close()

	client := New("access-key")
	client.baseURL = server.URL

	result, err := client.Search(context.Background(), "sunset", 0, 100)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(result.Results))
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	client := New("access-key")
	if _, err := client.Search(context.Background(), "", 1, 10); err == nil {
		t.Fatal("Search() with empty query, want error")
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	client := New("access-key")
	client.baseURL = server.URL

	if _, err := client.Search(context.Background(), "sunset", 1, 10); err == nil {
		t.Fatal("Search() error = nil, want upstream status error")
	}
}

func TestEnabled(t *testing.T) {
	if New("").Enabled() {
		t.Error("Enabled() = true with empty key, want false")
	}
	if !New("key").Enabled() {
		t.Error("Enabled() = false with key, want true")
	}
}
