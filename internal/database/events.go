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

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/metrics"
	"github.com/tomtom215/pagepulse/internal/models"
)

const insertEventSQL = `
	INSERT INTO events (
		id, kind, raw_kind, session_id, page, url, event_name, occurred_at,
		post_id, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
		scroll_depth, viewport, coordinates, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertEvent appends one event and returns the store-assigned ID.
// The event is immutable once written; no update path exists.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	id, err := db.insertEvent(ctx, event)
	observe("insert_event", start, err)
	if err != nil {
		return "", err
	}

	metrics.EventsIngested.WithLabelValues(string(event.Kind)).Inc()
	return id, nil
}

// insertEvent is the shared insert path used by single, bulk, and health writes.
func (db *DB) insertEvent(ctx context.Context, event *models.Event) (string, error) {
	id := uuid.New().String()

	metadataJSON, err := marshalMetadata(event.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to serialize metadata: %w", err)
	}

	viewportJSON, err := marshalOptional(event.Viewport)
	if err != nil {
		return "", fmt.Errorf("failed to serialize viewport: %w", err)
	}

	coordinatesJSON, err := marshalOptional(event.Coordinates)
	if err != nil {
		return "", fmt.Errorf("failed to serialize coordinates: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx, insertEventSQL,
		id,
		string(event.Kind),
		event.RawKind,
		event.SessionID,
		nullableString(event.Page),
		nullableString(event.URL),
		nullableString(event.EventName),
		event.OccurredAt.UTC(),
		nullableString(event.PostID),
		nullableString(event.UTM.Source),
		nullableString(event.UTM.Medium),
		nullableString(event.UTM.Campaign),
		nullableString(event.UTM.Content),
		nullableString(event.UTM.Term),
		event.ScrollDepth,
		viewportJSON,
		coordinatesJSON,
		metadataJSON,
		createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	return id, nil
}

// BatchError records a per-index store failure in a bulk write.
type BatchError struct {
	Index int
	Err   error
}

// InsertEventsBatch appends a batch of already-validated events with
// per-record isolation: a failure writing one record does not prevent the
// others from persisting. The batch is deliberately NOT wrapped in a
// transaction — partial success is the expected outcome, not an error.
// Returned errors carry the index of each failed record.
func (db *DB) InsertEventsBatch(ctx context.Context, events []*models.Event) (int, []BatchError) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	metrics.BulkBatchSize.Observe(float64(len(events)))

	saved := 0
	var failures []BatchError
	for i, event := range events {
		if err := ctx.Err(); err != nil {
			// Caller went away; remaining records fail with the context error.
			failures = append(failures, BatchError{Index: i, Err: err})
			continue
		}
		if _, err := db.insertEvent(ctx, event); err != nil {
			logging.Ctx(ctx).Warn().Int("index", i).Err(err).Msg("Bulk record insert failed")
			metrics.DBQueryErrors.WithLabelValues("insert_batch").Inc()
			failures = append(failures, BatchError{Index: i, Err: err})
			continue
		}
		metrics.EventsIngested.WithLabelValues(string(event.Kind)).Inc()
		saved++
	}

	metrics.DBQueryDuration.WithLabelValues("insert_batch").Observe(time.Since(start).Seconds())
	return saved, failures
}

// DeleteEvent removes a single event by ID. Used by the health round trip.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	observe("delete_event", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// DeleteEventsOlderThan removes events whose event time is older than the
// given number of days and returns the number deleted. This is the only
// bulk delete path; together with InsertEvent it makes the store
// append/delete only.
func (db *DB) DeleteEventsOlderThan(ctx context.Context, days int) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE occurred_at < ?`, cutoff)
	observe("delete_older_than", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events older than %d days: %w", days, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}

	metrics.RetentionDeleted.Add(float64(deleted))

	// Checkpoint so the WAL space held by the deleted rows is reclaimed
	// instead of accumulating between sweeps.
	if deleted > 0 {
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Checkpoint after retention delete failed")
		}
	}

	return deleted, nil
}

const selectEventSQL = `
	SELECT id, kind, raw_kind, session_id, page, url, event_name, occurred_at,
	       post_id, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	       scroll_depth, viewport, coordinates, metadata, created_at
	FROM events`

// ListRecentEvents returns events newest first with limit/offset pagination.
// This is the operator debugging surface; dashboards use the aggregations.
func (db *DB) ListRecentEvents(ctx context.Context, limit, offset int) ([]models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		selectEventSQL+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	observe("list_recent", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// EventsBySession returns all events for one session, oldest first.
func (db *DB) EventsBySession(ctx context.Context, sessionID string, limit int) ([]models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		selectEventSQL+` WHERE session_id = ? ORDER BY occurred_at ASC LIMIT ?`, sessionID, limit)
	observe("events_by_session", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session events: %w", err)
	}
	return events, nil
}

// CountEvents returns the total number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	observe("count_events", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// CountEventsSince returns the number of events with event time at or after since.
func (db *DB) CountEventsSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE occurred_at >= ?`, since.UTC()).Scan(&count)
	observe("count_events_since", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent events: %w", err)
	}
	return count, nil
}

// scanEvent reads one row from a selectEventSQL result set.
func scanEvent(rows *sql.Rows) (models.Event, error) {
	var (
		event                         models.Event
		kind                          string
		page, url, eventName, postID  sql.NullString
		src, med, camp, content, term sql.NullString
		scrollDepth                   sql.NullFloat64
		viewportJSON, coordsJSON      sql.NullString
		metadataJSON                  string
	)

	err := rows.Scan(
		&event.ID, &kind, &event.RawKind, &event.SessionID,
		&page, &url, &eventName, &event.OccurredAt,
		&postID, &src, &med, &camp, &content, &term,
		&scrollDepth, &viewportJSON, &coordsJSON, &metadataJSON, &event.CreatedAt,
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Kind = models.Kind(kind)
	event.Page = stringOrEmpty(page)
	event.URL = stringOrEmpty(url)
	event.EventName = stringOrEmpty(eventName)
	event.PostID = stringOrEmpty(postID)
	event.UTM = models.UTM{
		Source:   stringOrEmpty(src),
		Medium:   stringOrEmpty(med),
		Campaign: stringOrEmpty(camp),
		Content:  stringOrEmpty(content),
		Term:     stringOrEmpty(term),
	}
	if scrollDepth.Valid {
		event.ScrollDepth = &scrollDepth.Float64
	}

	if viewportJSON.Valid && viewportJSON.String != "" {
		var vp models.Viewport
		if err := json.Unmarshal([]byte(viewportJSON.String), &vp); err == nil {
			event.Viewport = &vp
		}
	}
	if coordsJSON.Valid && coordsJSON.String != "" {
		var c models.Coordinates
		if err := json.Unmarshal([]byte(coordsJSON.String), &c); err == nil {
			event.Coordinates = &c
		}
	}

	event.Metadata = make(map[string]any)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &event.Metadata); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode metadata for event %s: %w", event.ID, err)
		}
	}

	return event, nil
}

// marshalMetadata serializes the metadata bag, treating nil as empty.
func marshalMetadata(metadata map[string]any) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// marshalOptional serializes an optional structured field, NULL when absent.
func marshalOptional(v any) (sql.NullString, error) {
	switch val := v.(type) {
	case *models.Viewport:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *models.Coordinates:
		if val == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
