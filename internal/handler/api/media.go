package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/imaging"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// maxUploadBytes caps media uploads at 20 MB.
const maxUploadBytes = 20 << 20

// MediaResponse represents an upload in API responses.
type MediaResponse struct {
	ID         int64             `json:"id"`
	UUID       string            `json:"uuid"`
	Filename   string            `json:"filename"`
	MimeType   string            `json:"mime_type"`
	Size       int64             `json:"size"`
	Width      *int64            `json:"width,omitempty"`
	Height     *int64            `json:"height,omitempty"`
	Alt        string            `json:"alt"`
	UploadedBy *int64            `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	URL        string            `json:"url"`
	Variants   []VariantResponse `json:"variants"`
}

// VariantResponse represents one resized rendition of an upload.
type VariantResponse struct {
	Name   string `json:"name"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
	Size   int64  `json:"size"`
	URL    string `json:"url"`
}

// mediaFileURL builds the streaming URL for an upload or one of its variants.
func mediaFileURL(mediaUUID, variant string) string {
	u := "/api/v1/media/file/" + mediaUUID
	if variant != "" {
		u += "?variant=" + variant
	}
	return u
}

func storeMediaToResponse(m store.Media, variants []store.MediaVariant) MediaResponse {
	resp := MediaResponse{
		ID:        m.ID,
		UUID:      m.UUID,
		Filename:  m.Filename,
		MimeType:  m.MimeType,
		Size:      m.Size,
		Alt:       m.AltText,
		CreatedAt: m.CreatedAt,
		URL:       mediaFileURL(m.UUID, ""),
		Variants:  make([]VariantResponse, 0, len(variants)),
	}
	if m.Width.Valid {
		resp.Width = &m.Width.Int64
	}
	if m.Height.Valid {
		resp.Height = &m.Height.Int64
	}
	if m.UploadedBy.Valid {
		resp.UploadedBy = &m.UploadedBy.Int64
	}
	for _, v := range variants {
		resp.Variants = append(resp.Variants, VariantResponse{
			Name:   v.Name,
			Width:  v.Width,
			Height: v.Height,
			Size:   v.Size,
			URL:    mediaFileURL(m.UUID, v.Name),
		})
	}
	return resp
}

func (h *Handler) mediaResponse(ctx context.Context, m store.Media) (MediaResponse, error) {
	variants, err := h.queries.ListMediaVariants(ctx, m.ID)
	if err != nil {
		return MediaResponse{}, err
	}
	return storeMediaToResponse(m, variants), nil
}

// extForMime returns the storage key extension for uploads that skip the
// imaging pipeline.
func extForMime(mimeType string) string {
	switch mimeType {
	case model.MimeTypeSVG:
		return ".svg"
	case model.MimeTypePDF:
		return ".pdf"
	default:
		return ".bin"
	}
}

// UploadMedia handles POST /api/v1/media (members). The upload is a
// multipart form with a `file` field and an optional `alt` field. Images
// are re-encoded with EXIF orientation applied and stored together with
// their resized variants; SVG and PDF files are stored as-is.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	if h.objects == nil {
		WriteServiceUnavailable(w, "Object storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteBadRequest(w, "Upload is malformed or exceeds the 20 MB limit", nil)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		WriteValidationError(w, map[string]string{"file": "A file field is required"})
		return
	}
	fileHeader := files[0]

	src, err := fileHeader.Open()
	if err != nil {
		WriteInternalError(w, "Failed to read upload")
		return
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		WriteInternalError(w, "Failed to read upload")
		return
	}

	mimeType := h.processor.DetectMimeType(data)
	if !model.IsAllowedUploadType(mimeType) {
		// SVG files with an XML prologue sniff as text/xml.
		declared := fileHeader.Header.Get("Content-Type")
		if declared == model.MimeTypeSVG && strings.HasPrefix(mimeType, "text/") {
			mimeType = model.MimeTypeSVG
		} else {
			WriteValidationError(w, map[string]string{"file": "Unsupported file type: " + mimeType})
			return
		}
	}

	filename, err := util.SanitizeFilename(fileHeader.Filename)
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "Invalid filename"})
		return
	}

	id := uuid.New().String()
	prefix := "media/" + id + "/"
	params := store.CreateMediaParams{
		UUID:       id,
		Filename:   filename,
		AltText:    r.FormValue("alt"),
		UploadedBy: sql.NullInt64{Int64: user.ID, Valid: true},
		CreatedAt:  time.Now(),
	}

	var (
		ext            string
		storedVariants []*imaging.VariantResult
	)
	if model.IsResizableImage(mimeType) {
		res, err := h.processor.Process(data)
		if err != nil {
			WriteValidationError(w, map[string]string{"file": "Could not decode image: " + err.Error()})
			return
		}
		ext = imaging.Ext(res.Format)
		originalKey := prefix + "original" + ext
		if err := h.objects.Put(ctx, originalKey, res.Data, res.MimeType); err != nil {
			WriteBadGateway(w, "Object storage error: "+err.Error())
			return
		}
		variants, err := h.processor.CreateAllVariants(res)
		if err != nil {
			h.cleanupMediaObjects(ctx, prefix)
			WriteInternalError(w, "Failed to generate image variants")
			return
		}
		for _, v := range variants {
			if err := h.objects.Put(ctx, prefix+v.Name+ext, v.Data, res.MimeType); err != nil {
				h.cleanupMediaObjects(ctx, prefix)
				WriteBadGateway(w, "Object storage error: "+err.Error())
				return
			}
		}
		params.StorageKey = originalKey
		params.MimeType = res.MimeType
		params.Size = res.Size
		params.Width = sql.NullInt64{Int64: int64(res.Width), Valid: true}
		params.Height = sql.NullInt64{Int64: int64(res.Height), Valid: true}
		storedVariants = variants
	} else {
		ext = extForMime(mimeType)
		originalKey := prefix + "original" + ext
		if err := h.objects.Put(ctx, originalKey, data, mimeType); err != nil {
			WriteBadGateway(w, "Object storage error: "+err.Error())
			return
		}
		params.StorageKey = originalKey
		params.MimeType = mimeType
		params.Size = int64(len(data))
	}

	media, err := h.queries.CreateMedia(ctx, params)
	if err != nil {
		h.cleanupMediaObjects(ctx, prefix)
		WriteInternalError(w, "Failed to record upload")
		return
	}

	variantRows := make([]store.MediaVariant, 0, len(storedVariants))
	for _, v := range storedVariants {
		row, err := h.queries.CreateMediaVariant(ctx, store.CreateMediaVariantParams{
			MediaID:    media.ID,
			Name:       v.Name,
			StorageKey: prefix + v.Name + ext,
			Width:      int64(v.Width),
			Height:     int64(v.Height),
			Size:       v.Size,
		})
		if err != nil {
			_ = h.queries.DeleteMedia(ctx, media.ID)
			h.cleanupMediaObjects(ctx, prefix)
			WriteInternalError(w, "Failed to record upload")
			return
		}
		variantRows = append(variantRows, row)
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryMedia, "media uploaded",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"uuid": media.UUID, "filename": media.Filename, "mime_type": media.MimeType, "size": media.Size})

	WriteCreated(w, storeMediaToResponse(media, variantRows))
}

func (h *Handler) cleanupMediaObjects(ctx context.Context, prefix string) {
	if err := h.objects.RemovePrefix(ctx, prefix); err != nil {
		slog.Error("cleaning up media objects", "prefix", prefix, "error", err)
	}
}

// ListMedia handles GET /api/v1/media (members). Admins see every upload,
// members only their own.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, defaultPerPage, maxPerPage)
	offset := (page - 1) * perPage

	var (
		media []store.Media
		total int64
		err   error
	)
	if user.IsAdmin {
		media, err = h.queries.ListMedia(ctx, store.ListMediaParams{
			Limit:  int64(perPage),
			Offset: int64(offset),
		})
		if err == nil {
			total, err = h.queries.CountMedia(ctx)
		}
	} else {
		media, err = h.queries.ListMediaByUser(ctx, store.ListMediaByUserParams{
			UploadedBy: user.ID,
			Limit:      int64(perPage),
			Offset:     int64(offset),
		})
		if err == nil {
			total, err = h.queries.CountMediaByUser(ctx, user.ID)
		}
	}
	if err != nil {
		WriteInternalError(w, "Failed to list media")
		return
	}

	responses := make([]MediaResponse, 0, len(media))
	for _, m := range media {
		resp, err := h.mediaResponse(ctx, m)
		if err != nil {
			WriteInternalError(w, "Failed to list media")
			return
		}
		responses = append(responses, resp)
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(int(total), perPage),
	})
}

// GetMedia handles GET /api/v1/media/{uuid} (members) and returns upload
// metadata with variant URLs.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	media, err := h.queries.GetMediaByUUID(ctx, chi.URLParam(r, "uuid"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Media not found")
		} else {
			WriteInternalError(w, "Failed to get media")
		}
		return
	}

	resp, err := h.mediaResponse(ctx, media)
	if err != nil {
		WriteInternalError(w, "Failed to get media")
		return
	}
	WriteSuccess(w, resp, nil)
}

// ServeMediaFile handles GET /api/v1/media/file/{uuid}. It streams the
// original, or the rendition named by ?variant=, from object storage with
// the stored content type.
func (h *Handler) ServeMediaFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.objects == nil {
		WriteServiceUnavailable(w, "Object storage is not configured")
		return
	}

	media, err := h.queries.GetMediaByUUID(ctx, chi.URLParam(r, "uuid"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Media not found")
		} else {
			WriteInternalError(w, "Failed to get media")
		}
		return
	}

	key := media.StorageKey
	if variant := r.URL.Query().Get("variant"); variant != "" {
		if !model.IsVariantName(variant) {
			WriteBadRequest(w, "Unknown variant name", nil)
			return
		}
		v, err := h.queries.GetMediaVariant(ctx, store.GetMediaVariantParams{
			MediaID: media.ID,
			Name:    variant,
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteNotFound(w, "Variant not found")
			} else {
				WriteInternalError(w, "Failed to get media")
			}
			return
		}
		key = v.StorageKey
	}

	obj, err := h.objects.Get(ctx, key)
	if err != nil {
		WriteBadGateway(w, "Object storage error: "+err.Error())
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", media.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, obj); err != nil {
		// Headers are already written, so the broken body is all the
		// client can be told.
		slog.Error("streaming media object", "key", key, "error", err)
	}
}

// DeleteMedia handles DELETE /api/v1/media/{id}. Uploaders can delete their
// own files, admins anyone's. Objects go first so a failed removal never
// leaves rows pointing at deleted data.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	media, ok := requireEntityByID(w, r, "media", func(id int64) (store.Media, error) {
		return h.queries.GetMediaByID(ctx, id)
	})
	if !ok {
		return
	}

	if !user.IsAdmin && (!media.UploadedBy.Valid || media.UploadedBy.Int64 != user.ID) {
		WriteForbidden(w, "You can only delete your own uploads")
		return
	}

	if h.objects == nil {
		WriteServiceUnavailable(w, "Object storage is not configured")
		return
	}
	if err := h.objects.RemovePrefix(ctx, "media/"+media.UUID+"/"); err != nil {
		WriteBadGateway(w, "Object storage error: "+err.Error())
		return
	}
	if err := h.queries.DeleteMedia(ctx, media.ID); err != nil {
		WriteInternalError(w, "Failed to delete media")
		return
	}

	_ = h.audit.LogInfo(ctx, model.AuditCategoryMedia, "media deleted",
		middleware.GetUserIDPtr(r), util.ClientIP(r),
		map[string]any{"uuid": media.UUID, "filename": media.Filename})

	w.WriteHeader(http.StatusNoContent)
}
