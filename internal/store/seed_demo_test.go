// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"testing"
)

func TestSeedDemo(t *testing.T) {
	db, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	// First seed base data (roles are needed for demo seeding)
	if err := Seed(ctx, db, "admin@example.com", "seed-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// Enable demo mode
	t.Setenv("ODIR_DEMO_MODE", "true")

	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	// Verify demo member was created with the user role
	member, err := q.GetUserByEmail(ctx, DemoMemberEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail(%s): %v", DemoMemberEmail, err)
	}
	if member.IsAdmin {
		t.Error("demo member should not be an admin")
	}
	roles, err := q.ListRolesByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListRolesByUser: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "user" {
		t.Errorf("roles = %v, want [user]", roles)
	}

	// Verify directory content was created
	peopleCount, err := q.CountPeople(ctx)
	if err != nil {
		t.Fatalf("CountPeople: %v", err)
	}
	if peopleCount < 4 {
		t.Errorf("people count = %d, want >= 4", peopleCount)
	}

	companyCount, err := q.CountCompanies(ctx)
	if err != nil {
		t.Fatalf("CountCompanies: %v", err)
	}
	if companyCount < 3 {
		t.Errorf("company count = %d, want >= 3", companyCount)
	}

	eventCount, err := q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if eventCount < 2 {
		t.Errorf("event count = %d, want >= 2", eventCount)
	}

	tagCount, err := q.CountTags(ctx)
	if err != nil {
		t.Fatalf("CountTags: %v", err)
	}
	if tagCount < 3 {
		t.Errorf("tag count = %d, want >= 3", tagCount)
	}

	// Feed shows the published demo posts, pinned welcome post first
	feed, err := q.ListPublishedPosts(ctx, ListPublishedPostsParams{
		IncludeMembersOnly: true,
		Limit:              10,
	})
	if err != nil {
		t.Fatalf("ListPublishedPosts: %v", err)
	}
	if len(feed) < 3 {
		t.Fatalf("feed length = %d, want >= 3", len(feed))
	}
	if !feed[0].Pinned {
		t.Error("first feed entry should be the pinned welcome post")
	}

	milestones, err := q.ListTimelineEvents(ctx)
	if err != nil {
		t.Fatalf("ListTimelineEvents: %v", err)
	}
	if len(milestones) < 3 {
		t.Errorf("timeline count = %d, want >= 3", len(milestones))
	}

	// Running demo seeding twice must not duplicate content
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("SeedDemo (rerun): %v", err)
	}
	recount, err := q.CountPeople(ctx)
	if err != nil {
		t.Fatalf("CountPeople (rerun): %v", err)
	}
	if recount != peopleCount {
		t.Errorf("people count changed on rerun: %d -> %d", peopleCount, recount)
	}
}

func TestSeedDemo_DisabledByDefault(t *testing.T) {
	db, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	if err := Seed(ctx, db, "admin@example.com", "seed-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// Without ODIR_DEMO_MODE nothing extra is created.
	t.Setenv("ODIR_DEMO_MODE", "")
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	count, err := q.CountPeople(ctx)
	if err != nil {
		t.Fatalf("CountPeople: %v", err)
	}
	if count != 0 {
		t.Errorf("people count = %d, want 0", count)
	}
}
