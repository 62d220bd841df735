// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const personColumns = `id, luma_id, slug, name, email, avatar_url, organization, job_title, bio, user_id, created_at, updated_at`

func scanPerson(row *sql.Row) (Person, error) {
	var i Person
	err := row.Scan(
		&i.ID,
		&i.LumaID,
		&i.Slug,
		&i.Name,
		&i.Email,
		&i.AvatarURL,
		&i.Organization,
		&i.JobTitle,
		&i.Bio,
		&i.UserID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPeople(rows *sql.Rows) ([]Person, error) {
	defer rows.Close()
	var items []Person
	for rows.Next() {
		var i Person
		if err := rows.Scan(
			&i.ID,
			&i.LumaID,
			&i.Slug,
			&i.Name,
			&i.Email,
			&i.AvatarURL,
			&i.Organization,
			&i.JobTitle,
			&i.Bio,
			&i.UserID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPerson = `
INSERT INTO people (luma_id, slug, name, email, avatar_url, organization, job_title, bio, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + personColumns

// CreatePersonParams holds the fields for CreatePerson.
type CreatePersonParams struct {
	LumaID       sql.NullString
	Slug         string
	Name         string
	Email        sql.NullString
	AvatarURL    sql.NullString
	Organization sql.NullString
	JobTitle     sql.NullString
	Bio          sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePerson inserts a new directory member.
func (q *Queries) CreatePerson(ctx context.Context, arg CreatePersonParams) (Person, error) {
	row := q.db.QueryRowContext(ctx, createPerson,
		arg.LumaID,
		arg.Slug,
		arg.Name,
		arg.Email,
		arg.AvatarURL,
		arg.Organization,
		arg.JobTitle,
		arg.Bio,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPerson(row)
}

// The slug is kept stable on conflict so member URLs survive renames
// in the upstream source.
const upsertPersonByLumaID = `
INSERT INTO people (luma_id, slug, name, email, avatar_url, organization, job_title, bio, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (luma_id) DO UPDATE SET
    name = excluded.name,
    email = excluded.email,
    avatar_url = excluded.avatar_url,
    organization = excluded.organization,
    job_title = excluded.job_title,
    updated_at = excluded.updated_at
RETURNING ` + personColumns

// UpsertPersonByLumaIDParams holds the fields for UpsertPersonByLumaID.
type UpsertPersonByLumaIDParams struct {
	LumaID       sql.NullString
	Slug         string
	Name         string
	Email        sql.NullString
	AvatarURL    sql.NullString
	Organization sql.NullString
	JobTitle     sql.NullString
	Bio          sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertPersonByLumaID inserts or refreshes a synced member keyed by
// their upstream id.
func (q *Queries) UpsertPersonByLumaID(ctx context.Context, arg UpsertPersonByLumaIDParams) (Person, error) {
	row := q.db.QueryRowContext(ctx, upsertPersonByLumaID,
		arg.LumaID,
		arg.Slug,
		arg.Name,
		arg.Email,
		arg.AvatarURL,
		arg.Organization,
		arg.JobTitle,
		arg.Bio,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPerson(row)
}

const getPersonByID = `SELECT ` + personColumns + ` FROM people WHERE id = ?`

// GetPersonByID fetches a person by primary key.
func (q *Queries) GetPersonByID(ctx context.Context, id int64) (Person, error) {
	return scanPerson(q.db.QueryRowContext(ctx, getPersonByID, id))
}

const getPersonBySlug = `SELECT ` + personColumns + ` FROM people WHERE slug = ?`

// GetPersonBySlug fetches a person by their URL slug.
func (q *Queries) GetPersonBySlug(ctx context.Context, slug string) (Person, error) {
	return scanPerson(q.db.QueryRowContext(ctx, getPersonBySlug, slug))
}

const getPersonByUserID = `SELECT ` + personColumns + ` FROM people WHERE user_id = ?`

// GetPersonByUserID fetches the directory profile linked to a user account.
func (q *Queries) GetPersonByUserID(ctx context.Context, userID int64) (Person, error) {
	return scanPerson(q.db.QueryRowContext(ctx, getPersonByUserID, userID))
}

const listPeople = `
SELECT ` + personColumns + ` FROM people
ORDER BY name COLLATE NOCASE
LIMIT ? OFFSET ?
`

// ListPeopleParams holds pagination for ListPeople.
type ListPeopleParams struct {
	Limit  int64
	Offset int64
}

// ListPeople returns a page of members ordered by name.
func (q *Queries) ListPeople(ctx context.Context, arg ListPeopleParams) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, listPeople, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPeople(rows)
}

const countPeople = `SELECT COUNT(*) FROM people`

// CountPeople returns the total number of members.
func (q *Queries) CountPeople(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPeople).Scan(&count)
	return count, err
}

const searchPeople = `
SELECT ` + personColumns + ` FROM people
WHERE name LIKE ? OR organization LIKE ?
ORDER BY name COLLATE NOCASE
LIMIT ? OFFSET ?
`

// SearchPeopleParams holds the pattern and pagination for SearchPeople.
type SearchPeopleParams struct {
	Query  string
	Limit  int64
	Offset int64
}

// SearchPeople returns members whose name or organization matches the
// pattern. Query should already contain LIKE wildcards.
func (q *Queries) SearchPeople(ctx context.Context, arg SearchPeopleParams) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, searchPeople, arg.Query, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPeople(rows)
}

const countSearchPeople = `SELECT COUNT(*) FROM people WHERE name LIKE ? OR organization LIKE ?`

// CountSearchPeople counts members matching the search pattern.
func (q *Queries) CountSearchPeople(ctx context.Context, query string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSearchPeople, query, query).Scan(&count)
	return count, err
}

const listPeopleByOrganization = `
SELECT ` + personColumns + ` FROM people
WHERE organization = ?
ORDER BY name COLLATE NOCASE
LIMIT ? OFFSET ?
`

// ListPeopleByOrganizationParams holds the filter and pagination for
// ListPeopleByOrganization.
type ListPeopleByOrganizationParams struct {
	Organization string
	Limit        int64
	Offset       int64
}

// ListPeopleByOrganization returns members of a single organization.
func (q *Queries) ListPeopleByOrganization(ctx context.Context, arg ListPeopleByOrganizationParams) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, listPeopleByOrganization, arg.Organization, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPeople(rows)
}

const countPeopleByOrganization = `SELECT COUNT(*) FROM people WHERE organization = ?`

// CountPeopleByOrganization counts members of a single organization.
func (q *Queries) CountPeopleByOrganization(ctx context.Context, organization string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPeopleByOrganization, organization).Scan(&count)
	return count, err
}

const updatePerson = `
UPDATE people
SET name = ?, email = ?, avatar_url = ?, organization = ?, job_title = ?, bio = ?, updated_at = ?
WHERE id = ?
RETURNING ` + personColumns

// UpdatePersonParams holds the fields for UpdatePerson.
type UpdatePersonParams struct {
	Name         string
	Email        sql.NullString
	AvatarURL    sql.NullString
	Organization sql.NullString
	JobTitle     sql.NullString
	Bio          sql.NullString
	UpdatedAt    time.Time
	ID           int64
}

// UpdatePerson updates profile fields and returns the updated row.
func (q *Queries) UpdatePerson(ctx context.Context, arg UpdatePersonParams) (Person, error) {
	row := q.db.QueryRowContext(ctx, updatePerson,
		arg.Name,
		arg.Email,
		arg.AvatarURL,
		arg.Organization,
		arg.JobTitle,
		arg.Bio,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPerson(row)
}

const linkPersonToUser = `
UPDATE people
SET user_id = ?, updated_at = ?
WHERE email = ? AND user_id IS NULL
`

// LinkPersonToUserParams holds the fields for LinkPersonToUser.
type LinkPersonToUserParams struct {
	UserID    int64
	UpdatedAt time.Time
	Email     string
}

// LinkPersonToUser attaches an unclaimed directory profile to a user
// account by matching email. Returns the number of rows linked.
func (q *Queries) LinkPersonToUser(ctx context.Context, arg LinkPersonToUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, linkPersonToUser, arg.UserID, arg.UpdatedAt, arg.Email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deletePerson = `DELETE FROM people WHERE id = ?`

// DeletePerson removes a member from the directory.
func (q *Queries) DeletePerson(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePerson, id)
	return err
}

const deleteAllPeople = `DELETE FROM people`

// DeleteAllPeople clears the directory ahead of a full resync.
func (q *Queries) DeleteAllPeople(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllPeople)
	return err
}
