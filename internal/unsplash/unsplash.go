// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package unsplash proxies stock-photo search to the Unsplash API.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	baseURL    = "https://api.unsplash.com"
	searchPath = "/search/photos"
	// Timeout for API requests
	requestTimeout = 15 * time.Second
	// Unsplash caps per_page at 30.
	maxPerPage = 30
)

// Client calls the Unsplash API with an application access key.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

// New creates a Client for the given access key.
func New(accessKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether an access key is configured.
func (c *Client) Enabled() bool {
	return c.accessKey != ""
}

// Photo is a search hit trimmed to the fields clients render.
type Photo struct {
	ID               string `json:"id"`
	Description      string `json:"description"`
	ThumbURL         string `json:"thumb_url"`
	SmallURL         string `json:"small_url"`
	RegularURL       string `json:"regular_url"`
	PhotographerName string `json:"photographer_name"`
	PhotographerLink string `json:"photographer_link"`
	DownloadLocation string `json:"download_location"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

type searchResponse struct {
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
	Results    []apiPhoto `json:"results"`
}

type apiPhoto struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Thumb   string `json:"thumb"`
		Small   string `json:"small"`
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
}

// Search queries the photo search endpoint and returns a trimmed page
// of results. Page and perPage are clamped to the API's limits.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("missing search query")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := &SearchResult{
		Total:      body.Total,
		TotalPages: body.TotalPages,
		Results:    make([]Photo, 0, len(body.Results)),
	}
	for _, p := range body.Results {
		description := p.Description
		if description == "" {
			description = p.AltDescription
		}
		result.Results = append(result.Results, Photo{
			ID:               p.ID,
			Description:      description,
			ThumbURL:         p.URLs.Thumb,
			SmallURL:         p.URLs.Small,
			RegularURL:       p.URLs.Regular,
			PhotographerName: p.User.Name,
			PhotographerLink: p.User.Links.HTML,
			DownloadLocation: p.Links.DownloadLocation,
		})
	}
	return result, nil
}
