// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package ingest

import (
	"testing"
	"time"

	"github.com/tomtom215/pagepulse/internal/models"
)

func TestNormalizeEmptyPayload(t *testing.T) {
	rec := Normalize(nil)
	if rec == nil {
		t.Fatal("Normalize(nil) returned nil")
	}
	if rec.Metadata == nil {
		t.Error("Metadata must never be nil")
	}
	if len(rec.Metadata) != 0 {
		t.Errorf("empty payload produced metadata %v", rec.Metadata)
	}
	if rec.Kind != models.KindCustom {
		t.Errorf("empty payload Kind = %q, want custom", rec.Kind)
	}
}

func TestNormalizeCamelCaseWins(t *testing.T) {
	rec := Normalize(map[string]any{
		"utm_source": "snake",
		"utmSource":  "camel",
		"session_id": "snake-session",
		"sessionId":  "camel-session",
	})

	if rec.UTM.Source != "camel" {
		t.Errorf("UTM.Source = %q, want camelCase value to win", rec.UTM.Source)
	}
	if rec.SessionID != "camel-session" {
		t.Errorf("SessionID = %q, want camelCase value to win", rec.SessionID)
	}
}

func TestNormalizeKindPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		wantRaw string
	}{
		{
			"eventType beats type",
			map[string]any{"eventType": "click", "type": "scroll"},
			"click",
		},
		{
			"eventType beats event_type",
			map[string]any{"event_type": "scroll", "eventType": "click"},
			"click",
		},
		{
			"type beats event_type",
			map[string]any{"type": "click", "event_type": "scroll"},
			"click",
		},
		{
			"event_type alone",
			map[string]any{"event_type": "scroll"},
			"scroll",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(tt.payload)
			if rec.RawKind != tt.wantRaw {
				t.Errorf("RawKind = %q, want %q", rec.RawKind, tt.wantRaw)
			}
		})
	}
}

func TestNormalizeRawKindPreserved(t *testing.T) {
	rec := Normalize(map[string]any{"eventType": "Mystery_Beacon_v3"})
	if rec.Kind != models.KindCustom {
		t.Errorf("Kind = %q, want custom", rec.Kind)
	}
	if rec.RawKind != "Mystery_Beacon_v3" {
		t.Errorf("RawKind = %q, want verbatim input", rec.RawKind)
	}
}

func TestNormalizeUnknownKeysPreserved(t *testing.T) {
	rec := Normalize(map[string]any{
		"sessionId":    "s1",
		"page":         "/blog/a",
		"abTestBucket": "variant-7",
		"clientFlags":  map[string]any{"darkMode": true},
	})

	if got := rec.Metadata["abTestBucket"]; got != "variant-7" {
		t.Errorf("Metadata[abTestBucket] = %v, want verbatim value", got)
	}
	if _, ok := rec.Metadata["clientFlags"]; !ok {
		t.Error("nested unknown key dropped from metadata")
	}
	if _, ok := rec.Metadata["sessionId"]; ok {
		t.Error("consumed alias leaked into metadata")
	}
}

func TestNormalizeProvenance(t *testing.T) {
	rec := Normalize(map[string]any{
		"session_id": "s1",
		"utmSource":  "newsletter",
	})

	prov, ok := rec.Metadata[provenanceKey].(map[string]string)
	if !ok {
		t.Fatalf("metadata %q missing or wrong type", provenanceKey)
	}
	if prov["sessionId"] != "session_id" {
		t.Errorf("provenance for sessionId = %q, want session_id", prov["sessionId"])
	}
	if prov["utmSource"] != "utmSource" {
		t.Errorf("provenance for utmSource = %q, want utmSource", prov["utmSource"])
	}
}

func TestNormalizeEquivalentConventions(t *testing.T) {
	// Two payloads differing only in naming convention must produce identical
	// canonical records apart from metadata provenance.
	camel := Normalize(map[string]any{"sessionId": "s1", "utmSource": "x", "page": "/p"})
	snake := Normalize(map[string]any{"session_id": "s1", "utm_source": "x", "page": "/p"})

	if camel.SessionID != snake.SessionID || camel.UTM != snake.UTM || camel.Page != snake.Page {
		t.Errorf("canonical records differ: %+v vs %+v", camel, snake)
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"rfc3339", "2026-03-01T12:00:00Z", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"epoch seconds", float64(1767225600), time.Unix(1767225600, 0).UTC()},
		{"epoch millis", float64(1767225600000), time.UnixMilli(1767225600000).UTC()},
		{"epoch string", "1767225600", time.Unix(1767225600, 0).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(map[string]any{"timestamp": tt.value})
			if !rec.OccurredAt.Equal(tt.want) {
				t.Errorf("OccurredAt = %v, want %v", rec.OccurredAt, tt.want)
			}
		})
	}

	t.Run("garbage timestamp ignored", func(t *testing.T) {
		rec := Normalize(map[string]any{"timestamp": "not-a-time"})
		if !rec.OccurredAt.IsZero() {
			t.Errorf("OccurredAt = %v, want zero", rec.OccurredAt)
		}
	})
}

func TestNormalizeStructuredFields(t *testing.T) {
	rec := Normalize(map[string]any{
		"scrollDepth":      "75.5",
		"screenResolution": "1920x1080",
		"coordinates":      map[string]any{"x": float64(120), "y": float64(640)},
	})

	if rec.ScrollDepth == nil || *rec.ScrollDepth != 75.5 {
		t.Errorf("ScrollDepth = %v, want 75.5", rec.ScrollDepth)
	}
	if rec.Viewport == nil || rec.Viewport.Width != 1920 || rec.Viewport.Height != 1080 {
		t.Errorf("Viewport = %+v, want 1920x1080", rec.Viewport)
	}
	if rec.Coordinates == nil || rec.Coordinates.X != 120 || rec.Coordinates.Y != 640 {
		t.Errorf("Coordinates = %+v, want (120, 640)", rec.Coordinates)
	}
}

func TestNormalizeNumericPostID(t *testing.T) {
	rec := Normalize(map[string]any{"post_id": float64(42)})
	if rec.PostID != "42" {
		t.Errorf("PostID = %q, want \"42\"", rec.PostID)
	}
}
