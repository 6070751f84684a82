// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package services

import (
	"context"
	"time"

	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/metrics"
)

// RetentionStore is the store surface the janitor needs.
// Satisfied by *database.DB.
type RetentionStore interface {
	DeleteEventsOlderThan(ctx context.Context, days int) (int64, error)
}

// JanitorService periodically deletes events older than the configured
// maximum age. It is the automatic counterpart of DELETE /cleanup: retention
// holds even when no operator ever calls the endpoint.
//
// A failed sweep is logged and retried on the next tick rather than crashing
// the service; the store being briefly unavailable should not put the
// janitor into restart backoff.
type JanitorService struct {
	store      RetentionStore
	maxAgeDays int
	interval   time.Duration
	name       string
}

// NewJanitorService creates a retention janitor.
func NewJanitorService(store RetentionStore, maxAgeDays int, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &JanitorService{
		store:      store,
		maxAgeDays: maxAgeDays,
		interval:   interval,
		name:       "retention-janitor",
	}
}

// Serve implements suture.Service. It runs one sweep per interval until the
// context is canceled. The first sweep runs one interval after startup, not
// immediately, so a crash-looping process does not hammer the store.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logging.Info().
		Int("max_age_days", j.maxAgeDays).
		Dur("interval", j.interval).
		Msg("Retention janitor started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// sweep runs one retention pass.
func (j *JanitorService) sweep(ctx context.Context) {
	deleted, err := j.store.DeleteEventsOlderThan(ctx, j.maxAgeDays)
	if err != nil {
		logging.Error().Err(err).Msg("Retention sweep failed")
		return
	}

	metrics.RetentionLastRun.Set(float64(time.Now().Unix()))
	if deleted > 0 {
		logging.Info().
			Int64("deleted", deleted).
			Int("max_age_days", j.maxAgeDays).
			Msg("Retention sweep completed")
	}
}

// String implements fmt.Stringer for suture logging.
func (j *JanitorService) String() string {
	return j.name
}
