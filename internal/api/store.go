// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"context"
	"time"

	"github.com/tomtom215/pagepulse/internal/database"
	"github.com/tomtom215/pagepulse/internal/models"
)

// EventStore is the store surface the handlers depend on. *database.DB
// satisfies it; tests substitute a hand-written mock.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) (string, error)
	InsertEventsBatch(ctx context.Context, events []*models.Event) (int, []database.BatchError)

	TotalEvents(ctx context.Context, days int, kind string) (int64, error)
	UniqueSessions(ctx context.Context, days int, kind string) (int64, error)
	KindBreakdown(ctx context.Context, days int, kind string) ([]models.KindCount, error)
	DailyTrend(ctx context.Context, days int) ([]models.DailyCount, error)
	TopPages(ctx context.Context, days, limit int) ([]models.PageCount, error)
	CampaignAttribution(ctx context.Context, days, limit int, filter models.UTMFilter) ([]models.CampaignCount, error)

	ListRecentEvents(ctx context.Context, limit, offset int) ([]models.Event, error)
	CountEvents(ctx context.Context) (int64, error)
	CountEventsSince(ctx context.Context, since time.Time) (int64, error)

	DeleteEventsOlderThan(ctx context.Context, days int) (int64, error)
	HealthRoundTrip(ctx context.Context) (time.Duration, error)
	Ping(ctx context.Context) error
}

var _ EventStore = (*database.DB)(nil)
