// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olegiv/odir-go/internal/auth"
	"github.com/olegiv/odir-go/internal/model"
	"github.com/olegiv/odir-go/internal/util"
)

// Demo mode credentials
const (
	DemoMemberEmail    = "member@example.com"
	DemoMemberPassword = "demo1234demo"
	DemoMemberName     = "Demo Member"
)

// SeedDemo fills the directory with sample content for trying oDir out.
// This is called after the regular Seed() when ODIR_DEMO_MODE=true.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	if os.Getenv("ODIR_DEMO_MODE") != "true" {
		return nil
	}

	slog.Info("seeding demo content")
	queries := New(db)

	memberID, err := seedDemoMember(ctx, queries)
	if err != nil {
		return fmt.Errorf("seeding demo member: %w", err)
	}

	if err := seedDemoCompanies(ctx, queries); err != nil {
		return fmt.Errorf("seeding demo companies: %w", err)
	}

	if err := seedDemoPeople(ctx, queries); err != nil {
		return fmt.Errorf("seeding demo people: %w", err)
	}

	if err := seedDemoEvents(ctx, queries); err != nil {
		return fmt.Errorf("seeding demo events: %w", err)
	}

	tagIDs, err := seedDemoTags(ctx, queries)
	if err != nil {
		return fmt.Errorf("seeding demo tags: %w", err)
	}

	if err := seedDemoPosts(ctx, queries, memberID, tagIDs); err != nil {
		return fmt.Errorf("seeding demo posts: %w", err)
	}

	if err := seedDemoTimeline(ctx, queries); err != nil {
		return fmt.Errorf("seeding demo timeline: %w", err)
	}

	slog.Info("demo content seeded successfully")
	return nil
}

func seedDemoMember(ctx context.Context, queries *Queries) (int64, error) {
	existing, err := queries.GetUserByEmail(ctx, DemoMemberEmail)
	if err == nil {
		slog.Info("demo member already exists, skipping")
		return existing.ID, nil
	}

	hash, err := auth.HashPassword(DemoMemberPassword)
	if err != nil {
		return 0, fmt.Errorf("hashing member password: %w", err)
	}

	now := time.Now()
	member, err := queries.CreateUser(ctx, CreateUserParams{
		Email:              DemoMemberEmail,
		Name:               DemoMemberName,
		PasswordHash:       hash,
		EmailVerified:      true,
		SubscriptionStatus: model.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return 0, fmt.Errorf("creating demo member: %w", err)
	}

	if role, err := queries.GetRoleByName(ctx, model.RoleUser); err == nil {
		if err := queries.AssignRoleToUser(ctx, AssignRoleToUserParams{
			UserID: member.ID,
			RoleID: role.ID,
		}); err != nil {
			return 0, fmt.Errorf("assigning member role: %w", err)
		}
	}

	slog.Info("created demo member",
		"email", DemoMemberEmail,
		"password", DemoMemberPassword,
	)

	return member.ID, nil
}

func seedDemoCompanies(ctx context.Context, queries *Queries) error {
	count, err := queries.CountCompanies(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("companies already exist, skipping demo companies")
		return nil
	}

	now := time.Now()
	companies := []struct {
		Name        string
		Website     string
		Description string
	}{
		{"Nimbus Labs", "https://nimbuslabs.example", "Cloud tooling for small teams"},
		{"Ferrule", "https://ferrule.example", "Connector hardware and firmware"},
		{"Quill & Byte", "https://quillandbyte.example", "Technical writing studio"},
	}

	for _, c := range companies {
		_, err := queries.CreateCompany(ctx, CreateCompanyParams{
			Slug:        util.Slugify(c.Name),
			Name:        c.Name,
			Website:     util.NullStringFromValue(c.Website),
			Description: util.NullStringFromValue(c.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating company %s: %w", c.Name, err)
		}
	}

	slog.Info("seeded demo companies", "count", len(companies))
	return nil
}

func seedDemoPeople(ctx context.Context, queries *Queries) error {
	count, err := queries.CountPeople(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("people already exist, skipping demo people")
		return nil
	}

	now := time.Now()
	people := []struct {
		LumaID       string
		Name         string
		Email        string
		Organization string
		JobTitle     string
	}{
		{"usr-demo0001", "Maya Lindqvist", "maya@nimbuslabs.example", "Nimbus Labs", "Platform Engineer"},
		{"usr-demo0002", "Tomas Okafor", "tomas@ferrule.example", "Ferrule", "Firmware Lead"},
		{"usr-demo0003", "Ines Castellanos", "member@example.com", "Quill & Byte", "Editor"},
		{"usr-demo0004", "Petr Havel", "petr@quillandbyte.example", "Quill & Byte", "Writer"},
	}

	for _, p := range people {
		_, err := queries.CreatePerson(ctx, CreatePersonParams{
			LumaID:       util.NullStringFromValue(p.LumaID),
			Slug:         util.SlugifyWithID(p.Name, p.LumaID, "person"),
			Name:         p.Name,
			Email:        util.NullStringFromValue(p.Email),
			Organization: util.NullStringFromValue(p.Organization),
			JobTitle:     util.NullStringFromValue(p.JobTitle),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating person %s: %w", p.Name, err)
		}
	}

	slog.Info("seeded demo people", "count", len(people))
	return nil
}

func seedDemoEvents(ctx context.Context, queries *Queries) error {
	count, err := queries.CountEvents(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("events already exist, skipping demo events")
		return nil
	}

	now := time.Now()
	events := []struct {
		LumaID   string
		Name     string
		StartsAt time.Time
		Location string
		Speakers []string
	}{
		{
			LumaID:   "evt-demo0001",
			Name:     "Community Meetup #12",
			StartsAt: now.AddDate(0, 0, -30),
			Location: "Hall B, Tech Park",
			Speakers: []string{"Maya Lindqvist", "Tomas Okafor"},
		},
		{
			LumaID:   "evt-demo0002",
			Name:     "Lightning Talks Night",
			StartsAt: now.AddDate(0, 0, 14),
			Location: "Online",
			Speakers: []string{"Petr Havel"},
		},
	}

	for _, e := range events {
		event, err := queries.CreateEvent(ctx, CreateEventParams{
			LumaID:    util.NullStringFromValue(e.LumaID),
			Slug:      util.SlugifyWithID(e.Name, e.LumaID, "event"),
			Name:      e.Name,
			StartsAt:  e.StartsAt,
			Location:  util.NullStringFromValue(e.Location),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating event %s: %w", e.Name, err)
		}

		for i, name := range e.Speakers {
			speaker, err := queries.CreateSpeaker(ctx, CreateSpeakerParams{
				EventID:  event.ID,
				Name:     name,
				Position: int64(i),
			})
			if err != nil {
				return fmt.Errorf("creating speaker %s: %w", name, err)
			}
			_, err = queries.CreatePresentation(ctx, CreatePresentationParams{
				EventID:   event.ID,
				SpeakerID: sql.NullInt64{Int64: speaker.ID, Valid: true},
				Title:     fmt.Sprintf("Talk by %s", name),
				Position:  int64(i),
			})
			if err != nil {
				return fmt.Errorf("creating presentation for %s: %w", name, err)
			}
		}
	}

	slog.Info("seeded demo events", "count", len(events))
	return nil
}

func seedDemoTags(ctx context.Context, queries *Queries) (map[string]int64, error) {
	count, err := queries.CountTags(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		slog.Info("tags already exist, skipping demo tags")
		return make(map[string]int64), nil
	}

	now := time.Now()
	tags := []string{"Announcements", "Meetups", "Members"}

	ids := make(map[string]int64)
	for _, name := range tags {
		created, err := queries.CreateTag(ctx, CreateTagParams{
			Slug:      util.Slugify(name),
			Name:      name,
			CreatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating tag %s: %w", name, err)
		}
		ids[created.Slug] = created.ID
	}

	slog.Info("seeded demo tags", "count", len(tags))
	return ids, nil
}

func seedDemoPosts(ctx context.Context, queries *Queries, authorID int64, tagIDs map[string]int64) error {
	count, err := queries.CountPosts(ctx, "")
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("posts already exist, skipping demo posts")
		return nil
	}

	now := time.Now()
	posts := []struct {
		Title       string
		Body        string
		MembersOnly bool
		Pinned      bool
		Tag         string
	}{
		{
			Title:  "Welcome to the directory",
			Body:   "This site lists the people, companies and events of our community.",
			Pinned: true,
			Tag:    "announcements",
		},
		{
			Title: "Recap: Community Meetup #12",
			Body:  "Thanks to everyone who joined. Slides and recordings are linked from the event page.",
			Tag:   "meetups",
		},
		{
			Title:       "Member benefits overview",
			Body:        "Supporting members get early event access and a listed company profile.",
			MembersOnly: true,
			Tag:         "members",
		},
	}

	for i, p := range posts {
		created, err := queries.CreatePost(ctx, CreatePostParams{
			Slug:        util.Slugify(p.Title),
			Title:       p.Title,
			Body:        p.Body,
			BodyHTML:    "<p>" + p.Body + "</p>",
			Status:      model.PostStatusPublished,
			MembersOnly: p.MembersOnly,
			AuthorID:    authorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating post %s: %w", p.Title, err)
		}

		// Stagger publication times so the feed has a stable order.
		publishedAt := now.Add(-time.Duration(i) * time.Hour)
		if _, err := queries.SetPostStatus(ctx, SetPostStatusParams{
			Status:      model.PostStatusPublished,
			PublishedAt: sql.NullTime{Time: publishedAt, Valid: true},
			UpdatedAt:   now,
			ID:          created.ID,
		}); err != nil {
			return fmt.Errorf("publishing post %s: %w", p.Title, err)
		}

		if p.Pinned {
			if _, err := queries.SetPostPinned(ctx, SetPostPinnedParams{
				Pinned:    true,
				UpdatedAt: now,
				ID:        created.ID,
			}); err != nil {
				return fmt.Errorf("pinning post %s: %w", p.Title, err)
			}
		}

		if tagID, ok := tagIDs[p.Tag]; ok {
			if err := queries.AddPostTag(ctx, AddPostTagParams{
				PostID: created.ID,
				TagID:  tagID,
			}); err != nil {
				return fmt.Errorf("tagging post %s: %w", p.Title, err)
			}
		}
	}

	slog.Info("seeded demo posts", "count", len(posts))
	return nil
}

func seedDemoTimeline(ctx context.Context, queries *Queries) error {
	existing, err := queries.ListTimelineEvents(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("timeline already exists, skipping demo timeline")
		return nil
	}

	now := time.Now()
	milestones := []struct {
		Title       string
		Description string
		HappenedOn  time.Time
	}{
		{"First meetup", "Twelve people in a borrowed classroom.", now.AddDate(-3, 0, 0)},
		{"100 members", "The directory crossed one hundred profiles.", now.AddDate(-1, -6, 0)},
		{"First conference", "A full day, three tracks, two hundred attendees.", now.AddDate(0, -2, 0)},
	}

	for i, m := range milestones {
		_, err := queries.CreateTimelineEvent(ctx, CreateTimelineEventParams{
			Title:       m.Title,
			Description: m.Description,
			HappenedOn:  m.HappenedOn,
			Position:    int64(i),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating milestone %s: %w", m.Title, err)
		}
	}

	slog.Info("seeded demo timeline", "count", len(milestones))
	return nil
}
