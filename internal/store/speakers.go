// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const createSpeaker = `
INSERT INTO speakers (event_id, person_id, name, avatar_url, position)
VALUES (?, ?, ?, ?, ?)
RETURNING id, event_id, person_id, name, avatar_url, position
`

// CreateSpeakerParams holds the fields for CreateSpeaker.
type CreateSpeakerParams struct {
	EventID   int64
	PersonID  sql.NullInt64
	Name      string
	AvatarURL sql.NullString
	Position  int64
}

// CreateSpeaker inserts a speaker row for an event.
func (q *Queries) CreateSpeaker(ctx context.Context, arg CreateSpeakerParams) (Speaker, error) {
	var i Speaker
	err := q.db.QueryRowContext(ctx, createSpeaker,
		arg.EventID,
		arg.PersonID,
		arg.Name,
		arg.AvatarURL,
		arg.Position,
	).Scan(&i.ID, &i.EventID, &i.PersonID, &i.Name, &i.AvatarURL, &i.Position)
	return i, err
}

const listSpeakersByEvent = `
SELECT id, event_id, person_id, name, avatar_url, position
FROM speakers
WHERE event_id = ?
ORDER BY position, id
`

// ListSpeakersByEvent returns an event's speakers in display order.
func (q *Queries) ListSpeakersByEvent(ctx context.Context, eventID int64) ([]Speaker, error) {
	rows, err := q.db.QueryContext(ctx, listSpeakersByEvent, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Speaker
	for rows.Next() {
		var i Speaker
		if err := rows.Scan(&i.ID, &i.EventID, &i.PersonID, &i.Name, &i.AvatarURL, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteSpeakersByEvent = `DELETE FROM speakers WHERE event_id = ?`

// DeleteSpeakersByEvent removes all speaker rows for an event.
func (q *Queries) DeleteSpeakersByEvent(ctx context.Context, eventID int64) error {
	_, err := q.db.ExecContext(ctx, deleteSpeakersByEvent, eventID)
	return err
}

const createPresentation = `
INSERT INTO presentations (event_id, speaker_id, title, video_url, slides_url, position)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, event_id, speaker_id, title, video_url, slides_url, position
`

// CreatePresentationParams holds the fields for CreatePresentation.
type CreatePresentationParams struct {
	EventID   int64
	SpeakerID sql.NullInt64
	Title     string
	VideoURL  sql.NullString
	SlidesURL sql.NullString
	Position  int64
}

// CreatePresentation inserts a presentation row for an event.
func (q *Queries) CreatePresentation(ctx context.Context, arg CreatePresentationParams) (Presentation, error) {
	var i Presentation
	err := q.db.QueryRowContext(ctx, createPresentation,
		arg.EventID,
		arg.SpeakerID,
		arg.Title,
		arg.VideoURL,
		arg.SlidesURL,
		arg.Position,
	).Scan(&i.ID, &i.EventID, &i.SpeakerID, &i.Title, &i.VideoURL, &i.SlidesURL, &i.Position)
	return i, err
}

const listPresentationsByEvent = `
SELECT id, event_id, speaker_id, title, video_url, slides_url, position
FROM presentations
WHERE event_id = ?
ORDER BY position, id
`

// ListPresentationsByEvent returns an event's presentations in display order.
func (q *Queries) ListPresentationsByEvent(ctx context.Context, eventID int64) ([]Presentation, error) {
	rows, err := q.db.QueryContext(ctx, listPresentationsByEvent, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Presentation
	for rows.Next() {
		var i Presentation
		if err := rows.Scan(&i.ID, &i.EventID, &i.SpeakerID, &i.Title, &i.VideoURL, &i.SlidesURL, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deletePresentationsByEvent = `DELETE FROM presentations WHERE event_id = ?`

// DeletePresentationsByEvent removes all presentation rows for an event.
func (q *Queries) DeletePresentationsByEvent(ctx context.Context, eventID int64) error {
	_, err := q.db.ExecContext(ctx, deletePresentationsByEvent, eventID)
	return err
}
