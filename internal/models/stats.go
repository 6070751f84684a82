// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package models

// KindCount is one row of the per-kind breakdown.
type KindCount struct {
	Kind           Kind  `json:"kind"`
	Count          int64 `json:"count"`
	UniqueSessions int64 `json:"unique_sessions"`
}

// DailyCount is one calendar day (UTC) of the daily trend.
type DailyCount struct {
	Date           string `json:"date"` // YYYY-MM-DD
	Count          int64  `json:"count"`
	UniqueSessions int64  `json:"unique_sessions"`
}

// PageCount is one row of the top-pages breakdown, computed over
// pageview-kind events only.
type PageCount struct {
	Page           string `json:"page"`
	Views          int64  `json:"views"`
	UniqueSessions int64  `json:"unique_sessions"`
}

// CampaignCount is one row of the campaign attribution breakdown, grouped
// by the full UTM tuple over events carrying any UTM dimension.
type CampaignCount struct {
	UTM            UTM   `json:"utm"`
	Events         int64 `json:"events"`
	UniqueSessions int64 `json:"unique_sessions"`
	Pageviews      int64 `json:"pageviews"`
}

// UTMFilter narrows campaign attribution to matching dimensions.
// Empty fields match everything.
type UTMFilter struct {
	Source   string
	Medium   string
	Campaign string
}

// StatsSummary is the GET /stats response payload.
type StatsSummary struct {
	Days           int         `json:"days"`
	Kind           string      `json:"kind,omitempty"`
	TotalEvents    int64       `json:"total_events"`
	UniqueSessions int64       `json:"unique_sessions"`
	Recent24h      int64       `json:"recent_24h"`
	ByKind         []KindCount `json:"by_kind"`
}

// DashboardSummary is the GET /dashboard response payload.
type DashboardSummary struct {
	Days        int             `json:"days"`
	ByKind      []KindCount     `json:"by_kind"`
	DailyTrend  []DailyCount    `json:"daily_trend"`
	TopPages    []PageCount     `json:"top_pages"`
	Campaigns   []CampaignCount `json:"campaigns"`
	TotalEvents int64           `json:"total_events"`
}

// HealthStatus is the GET /health response payload.
// RoundTrip reports whether the synthetic write-then-delete succeeded.
type HealthStatus struct {
	Status      string `json:"status"` // healthy, degraded
	Store       bool   `json:"store_reachable"`
	RoundTrip   bool   `json:"round_trip"`
	TotalEvents int64  `json:"total_events"`
	Recent24h   int64  `json:"recent_24h"`
}

// BulkResult is the POST /track/bulk response payload.
// Errors are per-index strings; partial success is the expected outcome.
type BulkResult struct {
	SavedCount  int      `json:"saved_count"`
	FailedCount int      `json:"failed_count"`
	Errors      []string `json:"errors"`
}

// CleanupResult is the DELETE /cleanup response payload.
type CleanupResult struct {
	DeletedCount int64 `json:"deleted_count"`
	OlderThan    int   `json:"older_than_days"`
}
