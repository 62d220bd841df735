// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Supported image variant types
const (
	VariantThumbnail = "thumbnail"
	VariantSmall     = "small"
	VariantMedium    = "medium"
	VariantLarge     = "large"
)

// Supported MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypeSVG  = "image/svg+xml"
	MimeTypePDF  = "application/pdf"
)

// ImageVariantConfig defines settings for generating image variants.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool // true = crop to exact size, false = fit within bounds
}

// ImageVariants defines the image variant configurations generated per upload.
var ImageVariants = map[string]ImageVariantConfig{
	VariantThumbnail: {Width: 150, Height: 150, Quality: 80, Crop: true},
	VariantSmall:     {Width: 320, Height: 320, Quality: 82, Crop: false},
	VariantMedium:    {Width: 640, Height: 640, Quality: 85, Crop: false},
	VariantLarge:     {Width: 1280, Height: 1280, Quality: 90, Crop: false},
}

// IsVariantName reports whether name is a known variant type.
func IsVariantName(name string) bool {
	_, ok := ImageVariants[name]
	return ok
}

// ResizableImageTypes returns the MIME types the imaging pipeline can resize.
// SVG is accepted for upload but stored as-is.
func ResizableImageTypes() []string {
	return []string{MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP}
}

// IsResizableImage reports whether the MIME type goes through variant generation.
func IsResizableImage(mimeType string) bool {
	for _, t := range ResizableImageTypes() {
		if t == mimeType {
			return true
		}
	}
	return false
}

// AllowedUploadTypes returns every MIME type accepted by the upload endpoint.
func AllowedUploadTypes() []string {
	return []string{MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP, MimeTypeSVG, MimeTypePDF}
}

// IsAllowedUploadType checks if a MIME type is accepted for upload.
func IsAllowedUploadType(mimeType string) bool {
	for _, t := range AllowedUploadTypes() {
		if t == mimeType {
			return true
		}
	}
	return false
}
