// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain vocabulary shared across the application:
// statuses, the role/permission catalog, and media variant settings.
package model

// Subscription statuses for a user account.
const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// IsValidSubscriptionStatus reports whether s is a known subscription status.
func IsValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionNone, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	default:
		return false
	}
}

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8
