// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/models"
)

// HealthRoundTrip proves end-to-end write capability by inserting a
// synthetic health_check event and deleting it again. A reachable but
// read-only or full store fails here, which a plain ping would miss.
// The two statements are independent: if the delete fails after a
// successful insert, the stray record is reported and left for the
// retention janitor to collect.
func (db *DB) HealthRoundTrip(ctx context.Context) (time.Duration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	probe := &models.Event{
		Kind:       models.KindHealthCheck,
		RawKind:    string(models.KindHealthCheck),
		SessionID:  "health-" + uuid.New().String(),
		OccurredAt: now,
		Metadata:   map[string]any{"synthetic": true},
	}

	start := time.Now()
	id, err := db.insertEvent(ctx, probe)
	if err != nil {
		observe("health_round_trip", start, err)
		return 0, fmt.Errorf("health probe insert failed: %w", err)
	}

	if err := db.DeleteEvent(ctx, id); err != nil {
		observe("health_round_trip", start, err)
		logging.Ctx(ctx).Warn().Str("event_id", id).Err(err).
			Msg("Health probe delete failed, leaving record for retention cleanup")
		return 0, fmt.Errorf("health probe delete failed: %w", err)
	}

	elapsed := time.Since(start)
	observe("health_round_trip", start, nil)
	return elapsed, nil
}
