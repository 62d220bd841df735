// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const companyColumns = `id, slug, name, website, logo_url, description, claimed_by, created_at, updated_at`

func scanCompany(row *sql.Row) (Company, error) {
	var i Company
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Name,
		&i.Website,
		&i.LogoURL,
		&i.Description,
		&i.ClaimedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanCompanies(rows *sql.Rows) ([]Company, error) {
	defer rows.Close()
	var items []Company
	for rows.Next() {
		var i Company
		if err := rows.Scan(
			&i.ID,
			&i.Slug,
			&i.Name,
			&i.Website,
			&i.LogoURL,
			&i.Description,
			&i.ClaimedBy,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createCompany = `
INSERT INTO companies (slug, name, website, logo_url, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + companyColumns

// CreateCompanyParams holds the fields for CreateCompany.
type CreateCompanyParams struct {
	Slug        string
	Name        string
	Website     sql.NullString
	LogoURL     sql.NullString
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCompany inserts a new company.
func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (Company, error) {
	row := q.db.QueryRowContext(ctx, createCompany,
		arg.Slug,
		arg.Name,
		arg.Website,
		arg.LogoURL,
		arg.Description,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanCompany(row)
}

const getCompanyByID = `SELECT ` + companyColumns + ` FROM companies WHERE id = ?`

// GetCompanyByID fetches a company by primary key.
func (q *Queries) GetCompanyByID(ctx context.Context, id int64) (Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx, getCompanyByID, id))
}

const getCompanyBySlug = `SELECT ` + companyColumns + ` FROM companies WHERE slug = ?`

// GetCompanyBySlug fetches a company by its URL slug.
func (q *Queries) GetCompanyBySlug(ctx context.Context, slug string) (Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx, getCompanyBySlug, slug))
}

const listCompanies = `
SELECT ` + companyColumns + ` FROM companies
ORDER BY name COLLATE NOCASE
LIMIT ? OFFSET ?
`

// ListCompaniesParams holds pagination for ListCompanies.
type ListCompaniesParams struct {
	Limit  int64
	Offset int64
}

// ListCompanies returns a page of companies ordered by name.
func (q *Queries) ListCompanies(ctx context.Context, arg ListCompaniesParams) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx, listCompanies, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanCompanies(rows)
}

const countCompanies = `SELECT COUNT(*) FROM companies`

// CountCompanies returns the total number of companies.
func (q *Queries) CountCompanies(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCompanies).Scan(&count)
	return count, err
}

const updateCompany = `
UPDATE companies
SET name = ?, website = ?, logo_url = ?, description = ?, updated_at = ?
WHERE id = ?
RETURNING ` + companyColumns

// UpdateCompanyParams holds the fields for UpdateCompany.
type UpdateCompanyParams struct {
	Name        string
	Website     sql.NullString
	LogoURL     sql.NullString
	Description sql.NullString
	UpdatedAt   time.Time
	ID          int64
}

// UpdateCompany updates company fields and returns the updated row.
func (q *Queries) UpdateCompany(ctx context.Context, arg UpdateCompanyParams) (Company, error) {
	row := q.db.QueryRowContext(ctx, updateCompany,
		arg.Name,
		arg.Website,
		arg.LogoURL,
		arg.Description,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanCompany(row)
}

const claimCompany = `
UPDATE companies
SET claimed_by = ?, updated_at = ?
WHERE id = ? AND claimed_by IS NULL
`

// ClaimCompanyParams holds the fields for ClaimCompany.
type ClaimCompanyParams struct {
	ClaimedBy int64
	UpdatedAt time.Time
	ID        int64
}

// ClaimCompany marks a company as claimed by a user. Returns the number
// of rows updated, which is zero when the company is already claimed.
func (q *Queries) ClaimCompany(ctx context.Context, arg ClaimCompanyParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, claimCompany, arg.ClaimedBy, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setCompanyClaim = `
UPDATE companies
SET claimed_by = ?, updated_at = ?
WHERE id = ?
`

// SetCompanyClaimParams holds the fields for SetCompanyClaim.
type SetCompanyClaimParams struct {
	ClaimedBy sql.NullInt64
	UpdatedAt time.Time
	ID        int64
}

// SetCompanyClaim overwrites a company's claim regardless of its
// current holder. A null ClaimedBy releases the claim.
func (q *Queries) SetCompanyClaim(ctx context.Context, arg SetCompanyClaimParams) error {
	_, err := q.db.ExecContext(ctx, setCompanyClaim, arg.ClaimedBy, arg.UpdatedAt, arg.ID)
	return err
}

const deleteCompany = `DELETE FROM companies WHERE id = ?`

// DeleteCompany removes a company.
func (q *Queries) DeleteCompany(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCompany, id)
	return err
}
