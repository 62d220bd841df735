// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"testing"
	"time"
)

func TestUpsertPersonByLumaID(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	first, err := q.UpsertPersonByLumaID(ctx, UpsertPersonByLumaIDParams{
		LumaID:    sql.NullString{String: "usr-abc12345", Valid: true},
		Slug:      "ada-lovelace-usr-abc1",
		Name:      "Ada Lovelace",
		Email:     sql.NullString{String: "ada@example.com", Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("UpsertPersonByLumaID: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("first.ID should not be 0")
	}

	// Second upsert with the same luma_id must update in place and keep
	// the original slug.
	second, err := q.UpsertPersonByLumaID(ctx, UpsertPersonByLumaIDParams{
		LumaID:       sql.NullString{String: "usr-abc12345", Valid: true},
		Slug:         "ada-king-usr-abc1",
		Name:         "Ada King",
		Email:        sql.NullString{String: "ada@example.com", Valid: true},
		Organization: sql.NullString{String: "Analytical Engines", Valid: true},
		CreatedAt:    now.Add(time.Hour),
		UpdatedAt:    now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertPersonByLumaID (second): %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("ID = %d, want %d (same row)", second.ID, first.ID)
	}
	if second.Name != "Ada King" {
		t.Errorf("Name = %q, want %q", second.Name, "Ada King")
	}
	if second.Slug != first.Slug {
		t.Errorf("Slug = %q, want original %q", second.Slug, first.Slug)
	}
	if second.Organization.String != "Analytical Engines" {
		t.Errorf("Organization = %q, want %q", second.Organization.String, "Analytical Engines")
	}

	count, err := q.CountPeople(ctx)
	if err != nil {
		t.Fatalf("CountPeople: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestGetPersonBySlug(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	created, err := q.CreatePerson(ctx, CreatePersonParams{
		Slug:      "grace-hopper",
		Name:      "Grace Hopper",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}

	found, err := q.GetPersonBySlug(ctx, "grace-hopper")
	if err != nil {
		t.Fatalf("GetPersonBySlug: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	if _, err := q.GetPersonBySlug(ctx, "missing"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSearchPeople(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	people := []struct {
		slug, name, org string
	}{
		{"maya", "Maya Lindqvist", "Nimbus Labs"},
		{"tomas", "Tomas Okafor", "Ferrule"},
		{"ines", "Ines Castellanos", "Nimbus Labs"},
	}
	for _, p := range people {
		if _, err := q.CreatePerson(ctx, CreatePersonParams{
			Slug:         p.slug,
			Name:         p.name,
			Organization: sql.NullString{String: p.org, Valid: true},
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			t.Fatalf("CreatePerson(%s): %v", p.slug, err)
		}
	}

	// Search matches names and organizations.
	found, err := q.SearchPeople(ctx, SearchPeopleParams{Query: "%nimbus%", Limit: 10})
	if err != nil {
		t.Fatalf("SearchPeople: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("len(found) = %d, want 2", len(found))
	}

	// Organization filter is exact.
	byOrg, err := q.ListPeopleByOrganization(ctx, ListPeopleByOrganizationParams{
		Organization: "Ferrule",
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("ListPeopleByOrganization: %v", err)
	}
	if len(byOrg) != 1 || byOrg[0].Name != "Tomas Okafor" {
		t.Errorf("byOrg = %v, want just Tomas Okafor", byOrg)
	}

	orgCount, err := q.CountPeopleByOrganization(ctx, "Nimbus Labs")
	if err != nil {
		t.Fatalf("CountPeopleByOrganization: %v", err)
	}
	if orgCount != 2 {
		t.Errorf("orgCount = %d, want 2", orgCount)
	}
}

func TestLinkPersonToUser(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "linked@example.com")

	now := time.Now()
	person, err := q.CreatePerson(ctx, CreatePersonParams{
		Slug:      "linked-person",
		Name:      "Linked Person",
		Email:     sql.NullString{String: "linked@example.com", Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}

	linked, err := q.LinkPersonToUser(ctx, LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: now,
		Email:     "linked@example.com",
	})
	if err != nil {
		t.Fatalf("LinkPersonToUser: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, want 1", linked)
	}

	found, err := q.GetPersonByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetPersonByUserID: %v", err)
	}
	if found.ID != person.ID {
		t.Errorf("ID = %d, want %d", found.ID, person.ID)
	}

	// Linking again is a no-op because user_id is already set.
	other := createTestUser(t, ctx, q, "other@example.com")
	linked, err = q.LinkPersonToUser(ctx, LinkPersonToUserParams{
		UserID:    other.ID,
		UpdatedAt: now,
		Email:     "linked@example.com",
	})
	if err != nil {
		t.Fatalf("LinkPersonToUser (second): %v", err)
	}
	if linked != 0 {
		t.Errorf("linked = %d, want 0 (already claimed)", linked)
	}
}

func TestDeleteUserKeepsPerson(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "leaving@example.com")

	now := time.Now()
	if _, err := q.CreatePerson(ctx, CreatePersonParams{
		Slug:      "leaving-person",
		Name:      "Leaving Person",
		Email:     sql.NullString{String: "leaving@example.com", Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if _, err := q.LinkPersonToUser(ctx, LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: now,
		Email:     "leaving@example.com",
	}); err != nil {
		t.Fatalf("LinkPersonToUser: %v", err)
	}

	if err := q.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	// The profile survives with user_id cleared.
	person, err := q.GetPersonBySlug(ctx, "leaving-person")
	if err != nil {
		t.Fatalf("GetPersonBySlug: %v", err)
	}
	if person.UserID.Valid {
		t.Errorf("UserID = %v, want NULL after account deletion", person.UserID)
	}
}

func TestDeleteAllPeople(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	now := time.Now()
	for _, slug := range []string{"one", "two"} {
		if _, err := q.CreatePerson(ctx, CreatePersonParams{
			Slug:      slug,
			Name:      slug,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("CreatePerson(%s): %v", slug, err)
		}
	}

	if err := q.DeleteAllPeople(ctx); err != nil {
		t.Fatalf("DeleteAllPeople: %v", err)
	}

	count, err := q.CountPeople(ctx)
	if err != nil {
		t.Fatalf("CountPeople: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
