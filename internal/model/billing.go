// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Billing checkout session statuses, mirroring the payment processor's
// checkout session lifecycle.
const (
	BillingSessionOpen     = "open"
	BillingSessionComplete = "complete"
	BillingSessionExpired  = "expired"
)
