// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// slugIDLength is how much of an external identifier is appended to a slug.
const slugIDLength = 8

// Slugify converts a string to a URL-friendly slug.
// Non-Latin scripts are transliterated to ASCII first, then accents are
// decomposed and stripped, spaces become hyphens, and everything outside
// [a-z0-9-] is removed.
func Slugify(s string) string {
	// Transliterate non-Latin scripts (Cyrillic, CJK, ...) to ASCII
	result := unidecode.Unidecode(s)

	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ = transform.String(t, result)

	// Convert to lowercase
	result = strings.ToLower(result)

	// Replace spaces with hyphens
	result = strings.ReplaceAll(result, " ", "-")

	// Remove all non-alphanumeric characters except hyphens
	result = slugRegex.ReplaceAllString(result, "")

	// Replace multiple hyphens with single hyphen
	result = multipleHyphens.ReplaceAllString(result, "-")

	// Trim hyphens from start and end
	result = strings.Trim(result, "-")

	return result
}

// SlugifyWithID builds a slug from a display name plus a short fragment of an
// external identifier, so that records sharing a name still get distinct URLs
// without a collision-detection step. The result is deterministic and never
// empty: an unusable name falls back to the identifier fragment alone, and
// when both are unusable the given fallback literal is returned.
func SlugifyWithID(name, externalID, fallback string) string {
	base := Slugify(name)
	id := Slugify(shortID(externalID))

	switch {
	case base != "" && id != "":
		return base + "-" + id
	case base != "":
		return base
	case id != "":
		return id
	default:
		return fallback
	}
}

// shortID returns the first slugIDLength characters of an identifier,
// or the whole identifier when it is shorter.
func shortID(id string) string {
	if len(id) > slugIDLength {
		return id[:slugIDLength]
	}
	return id
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	// Check if it only contains lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Check that it doesn't start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// Check for consecutive hyphens
	if strings.Contains(s, "--") {
		return false
	}

	return true
}
