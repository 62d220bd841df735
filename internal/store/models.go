// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a registered account.
type User struct {
	ID                 int64
	Email              string
	Name               string
	PasswordHash       string
	IsAdmin            bool
	EmailVerified      bool
	SubscriptionStatus string
	StripeCustomerID   sql.NullString
	LastLoginAt        sql.NullTime
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VerificationToken is a single-use email verification token.
type VerificationToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Setting is a key/value site setting.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// AuditEvent is a persisted audit log entry.
type AuditEvent struct {
	ID        int64
	CreatedAt time.Time
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  sql.NullString
	IPAddress sql.NullString
}

// Person is a directory member, synced from the event platform or
// created locally.
type Person struct {
	ID           int64
	LumaID       sql.NullString
	Slug         string
	Name         string
	Email        sql.NullString
	AvatarURL    sql.NullString
	Organization sql.NullString
	JobTitle     sql.NullString
	Bio          sql.NullString
	UserID       sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Company is an organization listed in the directory.
type Company struct {
	ID          int64
	Slug        string
	Name        string
	Website     sql.NullString
	LogoURL     sql.NullString
	Description sql.NullString
	ClaimedBy   sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is a community event.
type Event struct {
	ID          int64
	LumaID      sql.NullString
	Slug        string
	Name        string
	Description sql.NullString
	StartsAt    time.Time
	EndsAt      sql.NullTime
	URL         sql.NullString
	CoverURL    sql.NullString
	Location    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Speaker is a person presenting at an event.
type Speaker struct {
	ID        int64
	EventID   int64
	PersonID  sql.NullInt64
	Name      string
	AvatarURL sql.NullString
	Position  int64
}

// Presentation is a talk given at an event.
type Presentation struct {
	ID        int64
	EventID   int64
	SpeakerID sql.NullInt64
	Title     string
	VideoURL  sql.NullString
	SlidesURL sql.NullString
	Position  int64
}

// Post is a news or blog entry.
type Post struct {
	ID          int64
	Slug        string
	Title       string
	Body        string
	BodyHTML    string
	Status      string
	MembersOnly bool
	Pinned      bool
	AuthorID    int64
	PublishedAt sql.NullTime
	ScheduledAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag labels posts.
type Tag struct {
	ID        int64
	Slug      string
	Name      string
	CreatedAt time.Time
}

// Role groups permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Permission is a named capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Media is an uploaded file.
type Media struct {
	ID         int64
	UUID       string
	StorageKey string
	Filename   string
	MimeType   string
	Size       int64
	Width      sql.NullInt64
	Height     sql.NullInt64
	AltText    string
	UploadedBy sql.NullInt64
	CreatedAt  time.Time
}

// MediaVariant is a resized rendition of an uploaded image.
type MediaVariant struct {
	ID         int64
	MediaID    int64
	Name       string
	StorageKey string
	Width      int64
	Height     int64
	Size       int64
}

// BillingSession tracks a checkout session from creation to settlement.
type BillingSession struct {
	ID              int64
	UserID          int64
	StripeSessionID string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TimelineEvent is a milestone on the community history timeline.
type TimelineEvent struct {
	ID          int64
	Title       string
	Description string
	HappenedOn  time.Time
	Position    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
