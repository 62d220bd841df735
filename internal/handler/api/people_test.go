// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/olegiv/odir-go/internal/store"
)

// createPersonWithDetails inserts a person with organization and email set.
func createPersonWithDetails(t *testing.T, q *store.Queries, name, slug, org, email string) store.Person {
	t.Helper()

	now := time.Now()
	person, err := q.CreatePerson(context.Background(), store.CreatePersonParams{
		Slug:         slug,
		Name:         name,
		Email:        sql.NullString{String: email, Valid: email != ""},
		Organization: sql.NullString{String: org, Valid: org != ""},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating person: %v", err)
	}
	return person
}

func TestListPeople(t *testing.T) {
	q, h := testSetup(t)

	createTestPerson(t, q, "Charlie", "charlie-1")
	createTestPerson(t, q, "Alice", "alice-1")
	createTestPerson(t, q, "Bob", "bob-1")

	w := executeHandler(t, h.ListPeople, newGetRequest(t, "/api/v1/people", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	people, meta := unmarshalList[PersonResponse](t, w)
	if len(people) != 3 {
		t.Fatalf("len(people) = %d, want 3", len(people))
	}
	if people[0].Name != "Alice" || people[2].Name != "Charlie" {
		t.Errorf("people not ordered by name: %s, %s, %s", people[0].Name, people[1].Name, people[2].Name)
	}
	if meta == nil || meta.Total != 3 {
		t.Errorf("meta.Total = %v, want 3", meta)
	}
}

func TestListPeople_Search(t *testing.T) {
	q, h := testSetup(t)

	createPersonWithDetails(t, q, "Grace Hopper", "grace-1", "Navy", "")
	createPersonWithDetails(t, q, "Ada Lovelace", "ada-1", "Analytical Engines", "")

	w := executeHandler(t, h.ListPeople, newGetRequest(t, "/api/v1/people?q=grace", nil))

	people, _ := unmarshalList[PersonResponse](t, w)
	if len(people) != 1 || people[0].Name != "Grace Hopper" {
		t.Errorf("search by name returned %v", people)
	}

	// The q parameter also matches organizations.
	w = executeHandler(t, h.ListPeople, newGetRequest(t, "/api/v1/people?q=Engines", nil))
	people, _ = unmarshalList[PersonResponse](t, w)
	if len(people) != 1 || people[0].Name != "Ada Lovelace" {
		t.Errorf("search by organization returned %v", people)
	}
}

func TestListPeople_CompanyFilter(t *testing.T) {
	q, h := testSetup(t)

	createPersonWithDetails(t, q, "Ada", "ada-1", "Acme", "")
	createPersonWithDetails(t, q, "Bob", "bob-1", "Acme", "")
	createPersonWithDetails(t, q, "Carol", "carol-1", "Other Corp", "")

	w := executeHandler(t, h.ListPeople, newGetRequest(t, "/api/v1/people?company=Acme", nil))

	people, meta := unmarshalList[PersonResponse](t, w)
	if len(people) != 2 {
		t.Fatalf("len(people) = %d, want 2", len(people))
	}
	if meta.Total != 2 {
		t.Errorf("meta.Total = %d, want 2", meta.Total)
	}
}

func TestListPeople_Pagination(t *testing.T) {
	q, h := testSetup(t)

	createTestPerson(t, q, "Alice", "alice-1")
	createTestPerson(t, q, "Bob", "bob-1")
	createTestPerson(t, q, "Carol", "carol-1")

	w := executeHandler(t, h.ListPeople, newGetRequest(t, "/api/v1/people?page=2&per_page=2", nil))

	people, meta := unmarshalList[PersonResponse](t, w)
	if len(people) != 1 {
		t.Fatalf("len(people) = %d, want 1", len(people))
	}
	if people[0].Name != "Carol" {
		t.Errorf("second page starts with %q, want Carol", people[0].Name)
	}
	if meta.Pages != 2 {
		t.Errorf("meta.Pages = %d, want 2", meta.Pages)
	}
}

func TestGetPerson(t *testing.T) {
	q, h := testSetup(t)

	createTestPerson(t, q, "Jane Doe", "jane-doe-1")

	req := newGetRequest(t, "/api/v1/people/jane-doe-1", map[string]string{"slug": "jane-doe-1"})
	w := executeHandler(t, h.GetPerson, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	person := unmarshalData[PersonResponse](t, w)
	if person.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", person.Name, "Jane Doe")
	}
	// An unclaimed profile is still a normal 200.
	if person.ProfileClaimed {
		t.Error("ProfileClaimed = true, want false for unlinked person")
	}
}

func TestGetPerson_Claimed(t *testing.T) {
	q, h := testSetup(t)

	createPersonWithDetails(t, q, "Jane Doe", "jane-doe-1", "", "jane@example.com")
	user := createTestUser(t, q, "jane@example.com", false)

	linked, err := q.LinkPersonToUser(context.Background(), store.LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: time.Now(),
		Email:     "jane@example.com",
	})
	if err != nil || linked != 1 {
		t.Fatalf("LinkPersonToUser: linked=%d err=%v", linked, err)
	}

	req := newGetRequest(t, "/api/v1/people/jane-doe-1", map[string]string{"slug": "jane-doe-1"})
	w := executeHandler(t, h.GetPerson, req)

	person := unmarshalData[PersonResponse](t, w)
	if !person.ProfileClaimed {
		t.Error("ProfileClaimed = false, want true for linked person")
	}
}

func TestGetPerson_NotFound(t *testing.T) {
	_, h := testSetup(t)

	req := newGetRequest(t, "/api/v1/people/nobody", map[string]string{"slug": "nobody"})
	w := executeHandler(t, h.GetPerson, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// linkTestProfile creates a person linked to the given user.
func linkTestProfile(t *testing.T, q *store.Queries, user store.User, slug string) store.Person {
	t.Helper()

	person := createPersonWithDetails(t, q, "Linked Person", slug, "", user.Email)
	if _, err := q.LinkPersonToUser(context.Background(), store.LinkPersonToUserParams{
		UserID:    user.ID,
		UpdatedAt: time.Now(),
		Email:     user.Email,
	}); err != nil {
		t.Fatalf("LinkPersonToUser: %v", err)
	}
	person.UserID = sql.NullInt64{Int64: user.ID, Valid: true}
	return person
}

func TestUpdatePerson_Owner(t *testing.T) {
	q, h := testSetup(t)

	user := createTestUser(t, q, "owner@example.com", false)
	person := linkTestProfile(t, q, user, "owner-1")

	body := `{"bio": "Hello there", "job_title": "Engineer"}`
	req := newJSONRequest(t, http.MethodPut, "/api/v1/people/1", body, map[string]string{"id": int64String(person.ID)})
	w := executeHandler(t, h.UpdatePerson, withUser(req, user))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	updated := unmarshalData[PersonResponse](t, w)
	if updated.Bio == nil || *updated.Bio != "Hello there" {
		t.Errorf("Bio = %v, want %q", updated.Bio, "Hello there")
	}
	if updated.JobTitle == nil || *updated.JobTitle != "Engineer" {
		t.Errorf("JobTitle = %v, want %q", updated.JobTitle, "Engineer")
	}
	// Untouched fields survive a partial update.
	if updated.Name != "Linked Person" {
		t.Errorf("Name = %q, want unchanged", updated.Name)
	}
}

func TestUpdatePerson_NotOwner(t *testing.T) {
	q, h := testSetup(t)

	stranger := createTestUser(t, q, "stranger@example.com", false)
	person := createTestPerson(t, q, "Someone Else", "someone-1")

	body := `{"bio": "Hijacked"}`
	req := newJSONRequest(t, http.MethodPut, "/api/v1/people/1", body, map[string]string{"id": int64String(person.ID)})
	w := executeHandler(t, h.UpdatePerson, withUser(req, stranger))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUpdatePerson_Admin(t *testing.T) {
	q, h := testSetup(t)

	admin := createTestUser(t, q, "admin@example.com", true)
	person := createTestPerson(t, q, "Member", "member-1")

	body := `{"name": "Renamed Member"}`
	req := newJSONRequest(t, http.MethodPut, "/api/v1/people/1", body, map[string]string{"id": int64String(person.ID)})
	w := executeHandler(t, h.UpdatePerson, withUser(req, admin))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if updated := unmarshalData[PersonResponse](t, w); updated.Name != "Renamed Member" {
		t.Errorf("Name = %q, want %q", updated.Name, "Renamed Member")
	}
}

func TestUpdatePerson_Anonymous(t *testing.T) {
	q, h := testSetup(t)

	person := createTestPerson(t, q, "Member", "member-1")

	body := `{"bio": "anon"}`
	req := newJSONRequest(t, http.MethodPut, "/api/v1/people/1", body, map[string]string{"id": int64String(person.ID)})
	w := executeHandler(t, h.UpdatePerson, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestDeletePerson(t *testing.T) {
	q, h := testSetup(t)

	person := createTestPerson(t, q, "Removed", "removed-1")

	req := newDeleteRequest(t, "/api/v1/people/1", map[string]string{"id": int64String(person.ID)})
	w := executeHandler(t, h.DeletePerson, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}

	if _, err := q.GetPersonByID(context.Background(), person.ID); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestDeletePerson_InvalidID(t *testing.T) {
	_, h := testSetup(t)

	req := newDeleteRequest(t, "/api/v1/people/abc", map[string]string{"id": "abc"})
	w := executeHandler(t, h.DeletePerson, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
