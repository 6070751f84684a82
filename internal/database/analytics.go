// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pagepulse/internal/models"
)

// Aggregation queries over the events table. All of them are read-only,
// computed fresh per call over a [now-days, now] window, and run at
// read-committed consistency: concurrent writes landing mid-query may or
// may not be reflected. Window bounds (days in [1,365]) are enforced by the
// API layer before any query executes.

// windowStart returns the UTC start of a days-long aggregation window.
func windowStart(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}

// TotalEvents returns the event count in the window, optionally filtered by kind.
func (db *DB) TotalEvents(ctx context.Context, days int, kind string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM events WHERE occurred_at >= ?`
	args := []any{windowStart(days)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	observe("total_events", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count events in window: %w", err)
	}
	return count, nil
}

// UniqueSessions returns the distinct session count in the window,
// optionally filtered by kind.
func (db *DB) UniqueSessions(ctx context.Context, days int, kind string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(DISTINCT session_id) FROM events WHERE occurred_at >= ?`
	args := []any{windowStart(days)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	observe("unique_sessions", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count unique sessions: %w", err)
	}
	return count, nil
}

// KindBreakdown groups the window by kind, reporting count and distinct
// sessions per group, sorted by count descending. The sum of per-kind
// counts always equals TotalEvents for the same window and filter.
func (db *DB) KindBreakdown(ctx context.Context, days int, kind string) ([]models.KindCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT kind, COUNT(*) AS cnt, COUNT(DISTINCT session_id)
		FROM events
		WHERE occurred_at >= ?`
	args := []any{windowStart(days)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += `
		GROUP BY kind
		ORDER BY cnt DESC, kind ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe("kind_breakdown", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query kind breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	breakdown := []models.KindCount{}
	for rows.Next() {
		var kc models.KindCount
		var k string
		if err := rows.Scan(&k, &kc.Count, &kc.UniqueSessions); err != nil {
			return nil, fmt.Errorf("failed to scan kind breakdown row: %w", err)
		}
		kc.Kind = models.Kind(k)
		breakdown = append(breakdown, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kind breakdown: %w", err)
	}
	return breakdown, nil
}

// DailyTrend groups the window by calendar day (UTC), reporting count and
// distinct sessions per day sorted ascending by date, for time-series charts.
func (db *DB) DailyTrend(ctx context.Context, days int) ([]models.DailyCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT strftime(occurred_at, '%Y-%m-%d') AS day,
		       COUNT(*),
		       COUNT(DISTINCT session_id)
		FROM events
		WHERE occurred_at >= ?
		GROUP BY day
		ORDER BY day ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, windowStart(days))
	observe("daily_trend", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trend: %w", err)
	}
	defer func() { _ = rows.Close() }()

	trend := []models.DailyCount{}
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count, &dc.UniqueSessions); err != nil {
			return nil, fmt.Errorf("failed to scan daily trend row: %w", err)
		}
		trend = append(trend, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily trend: %w", err)
	}
	return trend, nil
}

// TopPages groups pageview-kind events by page, reporting view count and
// distinct sessions sorted descending, capped at limit.
func (db *DB) TopPages(ctx context.Context, days, limit int) ([]models.PageCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT page, COUNT(*) AS views, COUNT(DISTINCT session_id)
		FROM events
		WHERE occurred_at >= ?
		  AND kind = ?
		  AND page IS NOT NULL
		GROUP BY page
		ORDER BY views DESC, page ASC
		LIMIT ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, windowStart(days), string(models.KindPageview), limit)
	observe("top_pages", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query top pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pages := []models.PageCount{}
	for rows.Next() {
		var pc models.PageCount
		if err := rows.Scan(&pc.Page, &pc.Views, &pc.UniqueSessions); err != nil {
			return nil, fmt.Errorf("failed to scan top pages row: %w", err)
		}
		pages = append(pages, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top pages: %w", err)
	}
	return pages, nil
}

// CampaignAttribution groups events carrying any UTM dimension by the full
// UTM tuple, reporting total events, distinct sessions, and the pageview
// subcount, sorted descending and capped at limit. A non-zero filter
// narrows the result to matching dimensions.
func (db *DB) CampaignAttribution(ctx context.Context, days, limit int, filter models.UTMFilter) ([]models.CampaignCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT COALESCE(utm_source, ''), COALESCE(utm_medium, ''),
		       COALESCE(utm_campaign, ''), COALESCE(utm_content, ''), COALESCE(utm_term, ''),
		       COUNT(*) AS cnt,
		       COUNT(DISTINCT session_id),
		       COUNT(*) FILTER (WHERE kind = ?) AS pageviews
		FROM events
		WHERE occurred_at >= ?
		  AND (utm_source IS NOT NULL OR utm_medium IS NOT NULL OR utm_campaign IS NOT NULL
		       OR utm_content IS NOT NULL OR utm_term IS NOT NULL)`
	args := []any{string(models.KindPageview), windowStart(days)}

	if filter.Source != "" {
		query += ` AND utm_source = ?`
		args = append(args, filter.Source)
	}
	if filter.Medium != "" {
		query += ` AND utm_medium = ?`
		args = append(args, filter.Medium)
	}
	if filter.Campaign != "" {
		query += ` AND utm_campaign = ?`
		args = append(args, filter.Campaign)
	}

	query += `
		GROUP BY utm_source, utm_medium, utm_campaign, utm_content, utm_term
		ORDER BY cnt DESC
		LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe("campaign_attribution", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign attribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	campaigns := []models.CampaignCount{}
	for rows.Next() {
		var cc models.CampaignCount
		err := rows.Scan(
			&cc.UTM.Source, &cc.UTM.Medium, &cc.UTM.Campaign, &cc.UTM.Content, &cc.UTM.Term,
			&cc.Events, &cc.UniqueSessions, &cc.Pageviews,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign attribution row: %w", err)
		}
		campaigns = append(campaigns, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaign attribution: %w", err)
	}
	return campaigns, nil
}
