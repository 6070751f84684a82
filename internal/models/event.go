// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

// Package models defines the persisted Event entity and the aggregation
// result shapes returned by the reporting endpoints.
package models

import "time"

// Kind is the canonical, closed classification of an event.
// Unrecognized input strings classify to KindCustom; the original input is
// always preserved in Event.RawKind.
type Kind string

// The fixed kind vocabulary. KindCustom is the never-fail fallback.
const (
	KindPageview             Kind = "pageview"
	KindClick                Kind = "click"
	KindScroll               Kind = "scroll"
	KindConversion           Kind = "conversion"
	KindAffiliateClick       Kind = "affiliate_click"
	KindSocialShare          Kind = "social_share"
	KindNewsletterEngagement Kind = "newsletter_engagement"
	KindOutboundClick        Kind = "outbound_click"
	KindPostView             Kind = "post_view"
	KindFormSubmit           Kind = "form_submit"
	KindSessionStart         Kind = "session_start"
	KindSessionEnd           Kind = "session_end"
	KindHeatmapInteraction   Kind = "heatmap_interaction"
	KindError                Kind = "error"
	KindPerformance          Kind = "performance"
	KindHealthCheck          Kind = "health_check"
	KindCustom               Kind = "custom"
	KindOther                Kind = "other"
)

// UTM is the campaign attribution tuple. Any subset of fields may be set;
// an event "carries UTM" when at least one field is non-empty.
type UTM struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Content  string `json:"content,omitempty"`
	Term     string `json:"term,omitempty"`
}

// IsZero reports whether no UTM dimension is set.
func (u UTM) IsZero() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Content == "" && u.Term == ""
}

// Viewport is the client viewport size in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Coordinates is a client-reported interaction point, used by heatmap kinds.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Event is the sole persisted entity: one immutable ingested analytics record.
// Events are created exactly once at ingestion and deleted only by retention
// cleanup; no update path exists.
type Event struct {
	// ID is the store-assigned UUID.
	ID string `json:"id"`

	// Kind is the canonical classification; always set.
	Kind Kind `json:"kind"`

	// RawKind is the original, unmodified input string that produced Kind.
	RawKind string `json:"raw_kind,omitempty"`

	// SessionID groups events from one browsing session. Required.
	// Sessions are a derived grouping, not a stored entity.
	SessionID string `json:"session_id"`

	// Page and URL; at least one is populated at write time. Page is derived
	// from the URL path when only a URL is given.
	Page string `json:"page,omitempty"`
	URL  string `json:"url,omitempty"`

	// EventName is a free-form label for non-pageview events.
	EventName string `json:"event_name,omitempty"`

	// OccurredAt is the event time. Defaults to ingestion time when the
	// client omits a timestamp; never required to be monotonic.
	OccurredAt time.Time `json:"occurred_at"`

	// PostID is an advisory reference to a content item owned by the blog
	// CMS. No referential integrity is enforced.
	PostID string `json:"post_id,omitempty"`

	// UTM carries campaign attribution dimensions.
	UTM UTM `json:"utm,omitempty"`

	// ScrollDepth is a percentage for scroll kinds.
	ScrollDepth *float64 `json:"scroll_depth,omitempty"`

	// Viewport and Coordinates are used by scroll and heatmap kinds.
	Viewport    *Viewport    `json:"viewport,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Metadata is an open-ended key/value bag. Never nil: it carries the IP,
	// user agent, referrer, unknown client keys, and normalization provenance.
	Metadata map[string]any `json:"metadata"`

	// CreatedAt is the ingestion timestamp assigned by the store.
	CreatedAt time.Time `json:"created_at"`
}
