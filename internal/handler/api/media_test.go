// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/odir-go/internal/storage"
	"github.com/olegiv/odir-go/internal/store"
)

// fakeS3 answers just enough of the S3 API for the media handlers:
// bucket HEAD, object PUT/GET/DELETE and an empty V2 listing.
type fakeS3 struct {
	puts    atomic.Int64
	objects map[string][]byte
}

func newFakeS3(t *testing.T) (*fakeS3, *storage.ObjectStore) {
	t.Helper()

	f := &fakeS3{objects: make(map[string][]byte)}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parsing stub URL: %v", err)
	}
	objects, err := storage.New(context.Background(), storage.Config{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "test-secret",
		Bucket:    "odir-media",
	})
	if err != nil {
		t.Fatalf("connecting to stub object store: %v", err)
	}
	return f, objects
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/odir-media/")
	bucketPath := strings.TrimSuffix(r.URL.Path, "/") == "/odir-media"
	switch {
	case r.Method == http.MethodHead && bucketPath:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && bucketPath && r.URL.Query().Get("list-type") == "2":
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<ListBucketResult><Name>odir-media</Name><KeyCount>0</KeyCount><IsTruncated>false</IsTruncated></ListBucketResult>`))
	case r.Method == http.MethodPut:
		body := new(bytes.Buffer)
		_, _ = body.ReadFrom(r.Body)
		f.objects[key] = body.Bytes()
		f.puts.Add(1)
		w.Header().Set("ETag", `"test-etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// testSetupWithObjects wires the handler against the stub object store.
func testSetupWithObjects(t *testing.T) (*store.Queries, *Handler, *fakeS3) {
	t.Helper()
	q, h := testSetup(t)
	f, objects := newFakeS3(t)
	h.objects = objects
	return q, h, f
}

// multipartUpload builds a multipart request body with a single file field.
func multipartUpload(t *testing.T, filename string, data []byte, alt string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if alt != "" {
		if err := mw.WriteField("alt", alt); err != nil {
			t.Fatalf("writing alt field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

// testPNG encodes a small solid-color image.
func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestUploadMedia_PNG(t *testing.T) {
	q, h, f := testSetupWithObjects(t)
	user := createTestUser(t, q, "member@example.com", false)

	body, contentType := multipartUpload(t, "photo.png", testPNG(t), "a test image")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, user)

	w := executeHandler(t, h.UploadMedia, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := unmarshalData[MediaResponse](t, w)
	if resp.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", resp.MimeType)
	}
	if resp.Width == nil || *resp.Width != 16 {
		t.Errorf("Width = %v, want 16", resp.Width)
	}
	if resp.Alt != "a test image" {
		t.Errorf("Alt = %q, want the submitted alt text", resp.Alt)
	}
	if f.puts.Load() == 0 {
		t.Error("expected the original object to be stored")
	}

	stored, err := q.GetMediaByUUID(context.Background(), resp.UUID)
	if err != nil {
		t.Fatalf("re-reading media row: %v", err)
	}
	if !strings.HasPrefix(stored.StorageKey, "media/"+resp.UUID+"/original") {
		t.Errorf("StorageKey = %q, want the media/{uuid}/original layout", stored.StorageKey)
	}
}

func TestUploadMedia_RejectsDisallowedType(t *testing.T) {
	q, h, f := testSetupWithObjects(t)
	user := createTestUser(t, q, "member@example.com", false)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text, not an image"), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, user)

	w := executeHandler(t, h.UploadMedia, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}
	// The rejection must happen before object storage is touched.
	if f.puts.Load() != 0 {
		t.Errorf("expected no object writes, got %d", f.puts.Load())
	}
}

func TestUploadMedia_RequiresAuth(t *testing.T) {
	_, h, _ := testSetupWithObjects(t)

	body, contentType := multipartUpload(t, "photo.png", testPNG(t), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)

	w := executeHandler(t, h.UploadMedia, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestListMedia_MembersSeeOwnUploads(t *testing.T) {
	q, h := testSetup(t)
	owner := createTestUser(t, q, "owner@example.com", false)
	other := createTestUser(t, q, "other@example.com", false)
	admin := createTestUser(t, q, "admin@example.com", true)

	now := time.Now()
	for i, uploadedBy := range []int64{owner.ID, owner.ID, other.ID} {
		if _, err := q.CreateMedia(context.Background(), store.CreateMediaParams{
			UUID:       "uuid-" + int64String(int64(i)),
			StorageKey: "media/uuid-" + int64String(int64(i)) + "/original.png",
			Filename:   "file.png",
			MimeType:   "image/png",
			Size:       100,
			UploadedBy: sql.NullInt64{Int64: uploadedBy, Valid: true},
			CreatedAt:  now,
		}); err != nil {
			t.Fatalf("creating media row: %v", err)
		}
	}

	req := withUser(newGetRequest(t, "/api/v1/media", nil), owner)
	w := executeHandler(t, h.ListMedia, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	mine, _ := unmarshalList[MediaResponse](t, w)
	if len(mine) != 2 {
		t.Errorf("expected the owner to see 2 uploads, got %d", len(mine))
	}

	req = withUser(newGetRequest(t, "/api/v1/media", nil), admin)
	w = executeHandler(t, h.ListMedia, req)
	all, _ := unmarshalList[MediaResponse](t, w)
	if len(all) != 3 {
		t.Errorf("expected the admin to see all 3 uploads, got %d", len(all))
	}
}

func TestDeleteMedia_OwnerOrAdmin(t *testing.T) {
	q, h, _ := testSetupWithObjects(t)
	owner := createTestUser(t, q, "owner@example.com", false)
	other := createTestUser(t, q, "other@example.com", false)

	media, err := q.CreateMedia(context.Background(), store.CreateMediaParams{
		UUID:       "uuid-del",
		StorageKey: "media/uuid-del/original.png",
		Filename:   "file.png",
		MimeType:   "image/png",
		Size:       100,
		UploadedBy: sql.NullInt64{Int64: owner.ID, Valid: true},
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("creating media row: %v", err)
	}
	params := map[string]string{"id": int64String(media.ID)}

	req := withUser(newDeleteRequest(t, "/api/v1/media/"+int64String(media.ID), params), other)
	w := executeHandler(t, h.DeleteMedia, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for a non-owner, got %d", w.Code)
	}

	req = withUser(newDeleteRequest(t, "/api/v1/media/"+int64String(media.ID), params), owner)
	w = executeHandler(t, h.DeleteMedia, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for the owner, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := q.GetMediaByID(context.Background(), media.ID); err == nil {
		t.Error("expected the media row to be gone")
	}
}
