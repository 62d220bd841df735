package model

import (
	"testing"
)

func TestIsResizableImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{MimeTypeSVG, false},
		{MimeTypePDF, false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsResizableImage(tt.mimeType); got != tt.want {
				t.Errorf("IsResizableImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestIsAllowedUploadType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypeSVG, true},
		{MimeTypePDF, true},
		{"video/mp4", false},
		{"application/zip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsAllowedUploadType(tt.mimeType); got != tt.want {
				t.Errorf("IsAllowedUploadType(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestIsVariantName(t *testing.T) {
	for _, name := range []string{VariantThumbnail, VariantSmall, VariantMedium, VariantLarge} {
		if !IsVariantName(name) {
			t.Errorf("IsVariantName(%q) = false, want true", name)
		}
	}
	if IsVariantName("original") {
		t.Error("IsVariantName(original) = true, want false")
	}
	if IsVariantName("") {
		t.Error("IsVariantName(\"\") = true, want false")
	}
}

func TestImageVariantsCoverEveryName(t *testing.T) {
	// The thumbnail is the only cropped variant.
	for name, cfg := range ImageVariants {
		if cfg.Width <= 0 || cfg.Height <= 0 {
			t.Errorf("variant %q has non-positive dimensions: %+v", name, cfg)
		}
		if cfg.Quality <= 0 || cfg.Quality > 100 {
			t.Errorf("variant %q has out-of-range quality: %d", name, cfg.Quality)
		}
		if cfg.Crop && name != VariantThumbnail {
			t.Errorf("variant %q unexpectedly crops", name)
		}
	}
}
