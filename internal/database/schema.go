// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaStatements creates the events table and its secondary indexes.
//
// Structured fields (viewport, coordinates, metadata) are stored as
// serialized JSON in VARCHAR columns so the schema needs no DuckDB
// extensions. UTM dimensions are first-class columns: campaign grouping is
// a primary query pattern and must stay indexable.
//
// The indexes mirror the aggregation access patterns:
//   - (kind, occurred_at): per-kind counts and top pages over a window
//   - (session_id): unique-session counting
//   - (page, occurred_at): page-level drilldown
//   - (utm_source, utm_medium): campaign attribution
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		kind VARCHAR NOT NULL,
		raw_kind VARCHAR NOT NULL DEFAULT '',
		session_id VARCHAR NOT NULL,
		page VARCHAR,
		url VARCHAR,
		event_name VARCHAR,
		occurred_at TIMESTAMP NOT NULL,
		post_id VARCHAR,
		utm_source VARCHAR,
		utm_medium VARCHAR,
		utm_campaign VARCHAR,
		utm_content VARCHAR,
		utm_term VARCHAR,
		scroll_depth DOUBLE,
		viewport VARCHAR,
		coordinates VARCHAR,
		metadata VARCHAR NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_kind_time ON events (kind, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session ON events (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_page_time ON events (page, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_utm ON events (utm_source, utm_medium)`,
}

// initialize creates the schema if it does not exist.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
