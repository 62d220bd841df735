// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded images in memory: decode, EXIF
// orientation, and variant resizing. Encoded results are handed to the
// object storage layer, nothing touches local disk.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/odir-go/internal/model"
)

// ProcessResult contains the re-encoded original and the decoded image
// kept for variant generation, so the source is only decoded once.
type ProcessResult struct {
	Image    image.Image
	Data     []byte
	Format   string
	MimeType string
	Width    int
	Height   int
	Size     int64
}

// VariantResult contains one encoded image variant.
type VariantResult struct {
	Name   string
	Data   []byte
	Width  int
	Height int
	Size   int64
}

// Processor handles image processing operations using pure Go libraries.
type Processor struct{}

// NewProcessor creates a new image processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process decodes image data, applies the EXIF orientation, and re-encodes
// the original. Pure Go encoders drop EXIF metadata, which also strips GPS
// tags from uploads.
func (p *Processor) Process(data []byte) (*ProcessResult, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	processed, err := encodeImage(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	// WebP input is re-encoded as JPEG, so report the output format
	outFormat := format
	if format == "webp" {
		outFormat = "jpeg"
	}

	return &ProcessResult{
		Image:    img,
		Data:     processed,
		Format:   outFormat,
		MimeType: formatToMimeType(outFormat),
		Width:    width,
		Height:   height,
		Size:     int64(len(processed)),
	}, nil
}

// CreateVariant resizes the source image per the variant config and encodes
// it in the given format. Returns nil when the source is already smaller
// than the target and the variant does not crop.
func (p *Processor) CreateVariant(src image.Image, format, name string, config model.ImageVariantConfig) (*VariantResult, error) {
	bounds := src.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= config.Width && srcHeight <= config.Height && !config.Crop {
		return nil, nil
	}

	var resized image.Image
	if config.Crop {
		// Crop to exact size from center
		resized = imaging.Fill(src, config.Width, config.Height, imaging.Center, imaging.Lanczos)
	} else {
		// Fit within bounds while maintaining aspect ratio
		resized = imaging.Fit(src, config.Width, config.Height, imaging.Lanczos)
	}

	resBounds := resized.Bounds()

	processed, err := encodeImage(resized, format, config.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding %s variant: %w", name, err)
	}

	return &VariantResult{
		Name:   name,
		Data:   processed,
		Width:  resBounds.Dx(),
		Height: resBounds.Dy(),
		Size:   int64(len(processed)),
	}, nil
}

// CreateAllVariants creates every configured variant from a processed
// original. It continues past individual failures, returning the variants
// that succeeded; an error is returned only when all of them fail.
func (p *Processor) CreateAllVariants(res *ProcessResult) ([]*VariantResult, error) {
	var results []*VariantResult
	var errs []string

	for name, config := range model.ImageVariants {
		result, err := p.CreateVariant(res.Image, res.Format, name, config)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}

	if len(errs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all variants failed: %s", strings.Join(errs, "; "))
	}

	return results, nil
}

// DetectMimeType detects the MIME type of uploaded data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "image/jpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}

// Ext returns the storage key extension for an image format.
func Ext(format string) string {
	switch format {
	case "jpeg", "jpg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r *bytes.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	case "webp":
		// WebP decoding is supported but encoding is not in pure Go
		// Convert to JPEG for output
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	default:
		// Default to JPEG
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return model.MimeTypeJPEG
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	case "webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}
