// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package luma fetches calendar events and event guests from the Luma
// public API.
package luma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production API base used when no override
	// is configured.
	DefaultBaseURL = "https://api.lu.ma"
	// Timeout for API requests
	requestTimeout = 30 * time.Second

	listEventsPath = "/public/v1/calendar/list-events"
	getGuestsPath  = "/public/v1/event/get-guests"
)

// Client calls the Luma public API with a calendar API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given API base URL and key. An empty
// base URL selects the production API.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Event is a calendar event as returned by the API. A missing end_at
// decodes as the zero time.
type Event struct {
	APIID       string      `json:"api_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartAt     time.Time   `json:"start_at"`
	EndAt       time.Time   `json:"end_at"`
	URL         string      `json:"url"`
	CoverURL    string      `json:"cover_url"`
	Geo         *GeoAddress `json:"geo_address_json"`
}

// GeoAddress is the venue block attached to an event. Online events
// carry no venue and decode as a nil pointer.
type GeoAddress struct {
	Address     string `json:"address"`
	City        string `json:"city"`
	CityState   string `json:"city_state"`
	FullAddress string `json:"full_address"`
}

// Location returns the most specific non-empty venue description.
func (g *GeoAddress) Location() string {
	if g == nil {
		return ""
	}
	if g.FullAddress != "" {
		return g.FullAddress
	}
	if g.Address != "" {
		return g.Address
	}
	if g.CityState != "" {
		return g.CityState
	}
	return g.City
}

// Guest is an event guest as returned by the API.
type Guest struct {
	APIID          string `json:"api_id"`
	Name           string `json:"user_name"`
	Email          string `json:"user_email"`
	ApprovalStatus string `json:"approval_status"`
}

type eventEntry struct {
	Event Event `json:"event"`
}

type listEventsResponse struct {
	Entries    []eventEntry `json:"entries"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

type guestEntry struct {
	Guest Guest `json:"guest"`
}

type listGuestsResponse struct {
	Entries    []guestEntry `json:"entries"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

// ListEvents fetches every event on the calendar, following cursor
// pagination until the API reports no more pages.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	cursor := ""
	for {
		query := url.Values{}
		if cursor != "" {
			query.Set("pagination_cursor", cursor)
		}

		var page listEventsResponse
		if err := c.get(ctx, listEventsPath, query, &page); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		for _, entry := range page.Entries {
			events = append(events, entry.Event)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return events, nil
}

// GetGuests fetches every guest of the event identified by its API id,
// following cursor pagination until the API reports no more pages.
func (c *Client) GetGuests(ctx context.Context, eventAPIID string) ([]Guest, error) {
	if eventAPIID == "" {
		return nil, fmt.Errorf("missing event api id")
	}

	var guests []Guest
	cursor := ""
	for {
		query := url.Values{}
		query.Set("event_api_id", eventAPIID)
		if cursor != "" {
			query.Set("pagination_cursor", cursor)
		}

		var page listGuestsResponse
		if err := c.get(ctx, getGuestsPath, query, &page); err != nil {
			return nil, fmt.Errorf("get guests: %w", err)
		}
		for _, entry := range page.Entries {
			guests = append(guests, entry.Guest)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return guests, nil
}

// get performs an authenticated GET request and decodes the JSON body
// into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-luma-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
