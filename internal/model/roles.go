// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Role names seeded into every installation.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleSponsor   = "sponsor"
)

// Permission names, in area:action form.
const (
	PermDirectoryView  = "directory:view"
	PermDirectoryEdit  = "directory:edit"
	PermPostsView      = "posts:view"
	PermPostsCreate    = "posts:create"
	PermPostsModerate  = "posts:moderate"
	PermEventsView     = "events:view"
	PermEventsManage   = "events:manage"
	PermCompanyPromote = "company:promote"
	PermCompanyManage  = "company:manage"
	PermMediaUpload    = "media:upload"
	PermBillingManage  = "billing:manage"
)

// PermissionCatalog lists every permission with its description, in seed order.
var PermissionCatalog = []struct {
	Name        string
	Description string
}{
	{PermDirectoryView, "Browse the member and company directory"},
	{PermDirectoryEdit, "Edit directory profiles"},
	{PermPostsView, "Read bulletin posts"},
	{PermPostsCreate, "Create bulletin posts"},
	{PermPostsModerate, "Moderate bulletin posts"},
	{PermEventsView, "Browse event listings"},
	{PermEventsManage, "Manage event listings"},
	{PermCompanyPromote, "Promote a sponsored company"},
	{PermCompanyManage, "Manage company entries"},
	{PermMediaUpload, "Upload media files"},
	{PermBillingManage, "Manage billing and subscriptions"},
}

// requiredPermissions maps a role name to the permissions that can never be
// revoked from it. Grants remain idempotent; revokes of these pairs are
// rejected regardless of request order.
var requiredPermissions = map[string][]string{
	RoleUser:      {PermDirectoryView, PermPostsView, PermEventsView},
	RoleModerator: {PermDirectoryView, PermPostsView, PermEventsView, PermPostsModerate},
	RoleSponsor:   {PermDirectoryView, PermPostsView, PermEventsView, PermCompanyPromote},
}

// IsRequiredPermission reports whether the given role/permission pair is
// protected from revocation.
func IsRequiredPermission(role, permission string) bool {
	for _, p := range requiredPermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RequiredPermissionsFor returns the protected permission names for a role.
// The returned slice is a copy.
func RequiredPermissionsFor(role string) []string {
	perms := requiredPermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// RoleNames returns the seeded role names in a stable order.
func RoleNames() []string {
	return []string{RoleUser, RoleModerator, RoleSponsor}
}

// RoleDescription returns the seeded description for a role name.
func RoleDescription(role string) string {
	switch role {
	case RoleUser:
		return "Regular community member"
	case RoleModerator:
		return "Member who moderates the bulletin"
	case RoleSponsor:
		return "Member representing a sponsoring company"
	default:
		return ""
	}
}
