// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to ISO country codes using a MaxMind
// GeoLite2-Country database. Lookups degrade to empty results when no
// database is configured.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// CodeLocal is returned for private, loopback and link-local addresses.
const CodeLocal = "LOCAL"

// Resolver maps IP addresses to ISO 3166-1 alpha-2 country codes.
type Resolver struct {
	mu        sync.RWMutex
	db        *maxminddb.Reader
	path      string
	dbModTime time.Time
}

// countryRecord matches the GeoLite2-Country database structure.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// New creates a Resolver for the database at path. An empty path
// returns a disabled Resolver and no error; any other load failure is
// reported so the caller can decide whether to continue without geo
// enrichment.
func New(path string) (*Resolver, error) {
	r := &Resolver{path: path}
	if path == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return r, err
	}
	return r, nil
}

// load opens or reopens the database. Caller must hold the write lock
// or have exclusive access.
func (r *Resolver) load() error {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("geoip database not found: %s", r.path)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	// Skip reload if not modified
	if r.db != nil && info.ModTime().Equal(r.dbModTime) {
		return nil
	}

	db, err := maxminddb.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}

	if r.db != nil {
		_ = r.db.Close()
	}
	r.db = db
	r.dbModTime = info.ModTime()
	return nil
}

// Reload reopens the database if its file changed. Safe to call
// periodically from a scheduled job.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return nil
	}
	return r.load()
}

// Country returns the two-letter country code for an IP address, or
// CodeLocal for private ranges, or "" when the address is invalid or
// the database is unavailable.
func (r *Resolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast() {
		return CodeLocal
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.db == nil {
		return ""
	}

	var record countryRecord
	if err := r.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
