// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package ingest

import (
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/pagepulse/internal/models"
)

// ValidationError describes a record that fails the write-time contract.
// It maps to HTTP 400; nothing is persisted for the failing record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate enforces the minimal write contract, in order:
//  1. SessionID non-empty after trim.
//  2. At least one of Page, URL, EventName present.
//
// If a URL is present but unparsable, the raw string is degraded to the
// page path rather than rejected. No other field is mandatory: the surface
// must keep working across uncoordinated client releases.
func Validate(rec *Record) *ValidationError {
	if strings.TrimSpace(rec.SessionID) == "" {
		return &ValidationError{Field: "sessionId", Message: "missing sessionId"}
	}

	if rec.Page == "" && rec.URL == "" && rec.EventName == "" {
		return &ValidationError{Field: "page", Message: "missing page/url/eventName"}
	}

	derivePage(rec)
	return nil
}

// derivePage fills Page from the URL path when only a URL was supplied.
// An unparsable URL degrades to the raw string as the page path.
func derivePage(rec *Record) {
	if rec.Page != "" || rec.URL == "" {
		return
	}

	u, err := url.Parse(rec.URL)
	if err != nil || u.Path == "" {
		rec.Page = rec.URL
		return
	}
	rec.Page = u.Path
}

// ToEvent converts a validated Record into the persisted Event shape.
// OccurredAt falls back to now when the client sent no timestamp.
func (r *Record) ToEvent(now time.Time) *models.Event {
	occurred := r.OccurredAt
	if occurred.IsZero() {
		occurred = now.UTC()
	}

	metadata := r.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &models.Event{
		Kind:        r.Kind,
		RawKind:     r.RawKind,
		SessionID:   strings.TrimSpace(r.SessionID),
		Page:        r.Page,
		URL:         r.URL,
		EventName:   r.EventName,
		OccurredAt:  occurred,
		PostID:      r.PostID,
		UTM:         r.UTM,
		ScrollDepth: r.ScrollDepth,
		Viewport:    r.Viewport,
		Coordinates: r.Coordinates,
		Metadata:    metadata,
	}
}
