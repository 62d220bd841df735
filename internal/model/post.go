// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// IsValidPostStatus reports whether s is a known post status.
func IsValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}
