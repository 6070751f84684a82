// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/pagepulse/internal/metrics"
)

// ensureContext creates a context with the configured query timeout if the
// caller's context carries no deadline. Every store method goes through this
// so no query can hang its caller indefinitely; an HTTP client disconnect
// cancels the in-flight query through the request context.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), db.queryTimeout)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, db.queryTimeout)
	}

	return ctx, func() {}
}

// observe records query duration and error metrics for a store operation.
func observe(operation string, start time.Time, err error) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// Checkpoint forces a WAL checkpoint. Runs after retention deletes to
// reclaim space; also leaves the file in a consistent state for backups.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// nullableString maps empty strings to SQL NULL so optional dimensions
// stay distinguishable from empty values in aggregation filters.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stringOrEmpty unwraps a nullable column scanned into sql.NullString.
func stringOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
