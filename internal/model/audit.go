// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Audit event levels
const (
	AuditLevelInfo    = "info"
	AuditLevelWarning = "warning"
	AuditLevelError   = "error"
)

// Audit event categories
const (
	AuditCategoryAuth    = "auth"
	AuditCategoryUser    = "user"
	AuditCategoryPerson  = "person"
	AuditCategoryCompany = "company"
	AuditCategoryEvent   = "event"
	AuditCategoryPost    = "post"
	AuditCategoryRole    = "role"
	AuditCategoryMedia   = "media"
	AuditCategoryBilling = "billing"
	AuditCategorySync    = "sync"
	AuditCategoryCache   = "cache"
	AuditCategorySystem  = "system"
)
