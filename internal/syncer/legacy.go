// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/util"
)

// LegacySource imports people, companies, and events from the MySQL
// database of an old directory installation. The DSN must include
// parseTime=true so DATETIME columns scan into time.Time.
type LegacySource struct {
	dsn string
}

// NewLegacySource creates the source for the given MySQL DSN.
func NewLegacySource(dsn string) *LegacySource {
	return &LegacySource{dsn: dsn}
}

// Name implements Source.
func (s *LegacySource) Name() string { return "legacy" }

// Description implements Source.
func (s *LegacySource) Description() string {
	return "People, companies, and events from a legacy directory database"
}

// CheckConfig implements Source.
func (s *LegacySource) CheckConfig() error {
	if s.dsn == "" {
		return errors.New("legacy database dsn not configured")
	}
	return nil
}

// Import reads the legacy tables and writes them as directory rows.
// Companies that already exist under the same slug are skipped, since
// the companies table is not cleared before a sync.
func (s *LegacySource) Import(ctx context.Context, q *store.Queries, progress Progress) (*Result, error) {
	reader, err := openLegacy(ctx, s.dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	result := &Result{}

	progress("companies", 0, 0, "reading companies")
	companies, err := reader.Companies(ctx)
	if err != nil {
		return nil, err
	}
	for i, c := range companies {
		imported, err := importLegacyCompany(ctx, q, c)
		if err != nil {
			return nil, fmt.Errorf("import company %d: %w", c.ID, err)
		}
		if imported {
			result.Companies++
		}
		progress("companies", i+1, len(companies), c.Name)
	}

	progress("events", 0, 0, "reading events")
	events, err := reader.Events(ctx)
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		if err := importLegacyEvent(ctx, q, e); err != nil {
			return nil, fmt.Errorf("import event %d: %w", e.ID, err)
		}
		result.Events++
		progress("events", i+1, len(events), e.Title)
	}

	progress("people", 0, 0, "reading members")
	members, err := reader.Members(ctx)
	if err != nil {
		return nil, err
	}
	for i, m := range members {
		if err := importLegacyMember(ctx, q, m); err != nil {
			return nil, fmt.Errorf("import member %d: %w", m.ID, err)
		}
		result.People++
		progress("people", i+1, len(members), m.Name)
	}

	return result, nil
}

func importLegacyCompany(ctx context.Context, q *store.Queries, c legacyCompany) (bool, error) {
	slug := util.SlugifyWithID(c.Name, "", "company")

	_, err := q.GetCompanyBySlug(ctx, slug)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	now := time.Now().UTC()
	_, err = q.CreateCompany(ctx, store.CreateCompanyParams{
		Slug:        slug,
		Name:        c.Name,
		Website:     c.Website,
		Description: c.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err == nil, err
}

func importLegacyEvent(ctx context.Context, q *store.Queries, e legacyEvent) error {
	id := strconv.FormatInt(e.ID, 10)
	now := time.Now().UTC()
	_, err := q.UpsertEventByLumaID(ctx, store.UpsertEventByLumaIDParams{
		LumaID:      util.NullStringFromValue("legacy-" + id),
		Slug:        util.SlugifyWithID(e.Title, id, "event"),
		Name:        e.Title,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		URL:         e.URL,
		Location:    e.Venue,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err
}

func importLegacyMember(ctx context.Context, q *store.Queries, m legacyMember) error {
	id := strconv.FormatInt(m.ID, 10)
	email := ""
	if m.Email.Valid {
		email = strings.ToLower(strings.TrimSpace(m.Email.String))
	}

	now := time.Now().UTC()
	if _, err := q.UpsertPersonByLumaID(ctx, store.UpsertPersonByLumaIDParams{
		LumaID:       util.NullStringFromValue("legacy-" + id),
		Slug:         util.SlugifyWithID(m.Name, id, "person"),
		Name:         m.Name,
		Email:        util.NullStringFromValue(email),
		Organization: m.Company,
		JobTitle:     m.Title,
		Bio:          m.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}

	if email == "" {
		return nil
	}
	return linkUserByEmail(ctx, q, email, now)
}

// legacyReader reads the legacy MySQL schema.
type legacyReader struct {
	db *sql.DB
}

func openLegacy(ctx context.Context, dsn string) (*legacyReader, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to legacy database: %w", err)
	}
	return &legacyReader{db: db}, nil
}

// Close closes the database connection.
func (r *legacyReader) Close() error {
	return r.db.Close()
}

type legacyMember struct {
	ID      int64
	Name    string
	Email   sql.NullString
	Company sql.NullString
	Title   sql.NullString
	Bio     sql.NullString
}

type legacyCompany struct {
	ID          int64
	Name        string
	Website     sql.NullString
	Description sql.NullString
}

type legacyEvent struct {
	ID          int64
	Title       string
	Description sql.NullString
	StartsAt    time.Time
	EndsAt      sql.NullTime
	URL         sql.NullString
	Venue       sql.NullString
}

// Members retrieves all members from the legacy database.
func (r *legacyReader) Members(ctx context.Context) ([]legacyMember, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, company, title, bio FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []legacyMember
	for rows.Next() {
		var m legacyMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Company, &m.Title, &m.Bio); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// Companies retrieves all companies from the legacy database.
func (r *legacyReader) Companies(ctx context.Context) ([]legacyCompany, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, website, description FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []legacyCompany
	for rows.Next() {
		var c legacyCompany
		if err := rows.Scan(&c.ID, &c.Name, &c.Website, &c.Description); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// Events retrieves all events from the legacy database.
func (r *legacyReader) Events(ctx context.Context) ([]legacyEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, description, starts_at, ends_at, url, venue FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []legacyEvent
	for rows.Next() {
		var e legacyEvent
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.URL, &e.Venue); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
