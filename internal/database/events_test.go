// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/pagepulse/internal/config"
	"github.com/tomtom215/pagepulse/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}

func testEvent(sessionID string, kind models.Kind) *models.Event {
	return &models.Event{
		Kind:       kind,
		RawKind:    string(kind),
		SessionID:  sessionID,
		Page:       "/hello-world",
		OccurredAt: time.Now().UTC(),
		Metadata:   map[string]any{"source": "test"},
	}
}

func TestInsertAndListEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := testEvent("s1", models.KindPageview)
	event.UTM = models.UTM{Source: "newsletter", Medium: "email"}
	sd := 42.5
	event.ScrollDepth = &sd
	event.Viewport = &models.Viewport{Width: 1920, Height: 1080}

	id, err := db.InsertEvent(ctx, event)
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if id == "" {
		t.Fatal("InsertEvent returned empty id")
	}

	events, err := db.ListRecentEvents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("listed %d events, want 1", len(events))
	}

	got := events[0]
	if got.Kind != models.KindPageview || got.SessionID != "s1" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.UTM.Source != "newsletter" || got.UTM.Medium != "email" {
		t.Errorf("utm mismatch: %+v", got.UTM)
	}
	if got.ScrollDepth == nil || *got.ScrollDepth != 42.5 {
		t.Errorf("scroll depth = %v, want 42.5", got.ScrollDepth)
	}
	if got.Viewport == nil || got.Viewport.Width != 1920 {
		t.Errorf("viewport = %+v, want 1920x1080", got.Viewport)
	}
	if got.Metadata["source"] != "test" {
		t.Errorf("metadata = %v, want source=test preserved", got.Metadata)
	}
}

func TestInsertEventNilMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := testEvent("s1", models.KindClick)
	event.Metadata = nil

	if _, err := db.InsertEvent(ctx, event); err != nil {
		t.Fatalf("InsertEvent with nil metadata: %v", err)
	}

	events, err := db.ListRecentEvents(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if events[0].Metadata == nil {
		t.Error("metadata must come back non-nil")
	}
}

func TestInsertEventsBatchPartial(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	batch := []*models.Event{
		testEvent("s1", models.KindPageview),
		testEvent("s2", models.KindClick),
		testEvent("s3", models.KindPageview),
	}

	saved, failures := db.InsertEventsBatch(ctx, batch)
	if saved != 3 || len(failures) != 0 {
		t.Fatalf("saved/failures = %d/%d, want 3/0", saved, len(failures))
	}

	count, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestDeleteEventsOlderThan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := testEvent("s1", models.KindPageview)
	old.OccurredAt = time.Now().UTC().AddDate(0, 0, -400)
	fresh := testEvent("s2", models.KindPageview)

	if _, err := db.InsertEvent(ctx, old); err != nil {
		t.Fatalf("insert old: %v", err)
	}
	if _, err := db.InsertEvent(ctx, fresh); err != nil {
		t.Fatalf("insert fresh: %v", err)
	}

	deleted, err := db.DeleteEventsOlderThan(ctx, 365)
	if err != nil {
		t.Fatalf("DeleteEventsOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining = %d, want 1", count)
	}
}

func TestCheckpoint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertEvent(ctx, testEvent("s1", models.KindPageview)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Checkpoint(ctx); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	// The store stays fully usable after a checkpoint.
	count, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAggregations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	events := []*models.Event{
		testEvent("s1", models.KindPageview),
		testEvent("s1", models.KindPageview),
		testEvent("s2", models.KindPageview),
		testEvent("s2", models.KindClick),
	}
	events[2].UTM = models.UTM{Source: "newsletter", Medium: "email", Campaign: "august"}
	events[3].UTM = models.UTM{Source: "newsletter", Medium: "email", Campaign: "august"}

	for _, e := range events {
		if _, err := db.InsertEvent(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	total, err := db.TotalEvents(ctx, 7, "")
	if err != nil {
		t.Fatalf("TotalEvents: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}

	sessions, err := db.UniqueSessions(ctx, 7, "")
	if err != nil {
		t.Fatalf("UniqueSessions: %v", err)
	}
	if sessions != 2 {
		t.Errorf("unique sessions = %d, want 2", sessions)
	}

	byKind, err := db.KindBreakdown(ctx, 7, "")
	if err != nil {
		t.Fatalf("KindBreakdown: %v", err)
	}
	var sum int64
	for _, kc := range byKind {
		sum += kc.Count
	}
	if sum != total {
		t.Errorf("sum of kinds = %d, want window total %d", sum, total)
	}
	if byKind[0].Kind != models.KindPageview || byKind[0].Count != 3 {
		t.Errorf("top kind = %+v, want pageview count 3", byKind[0])
	}

	pages, err := db.TopPages(ctx, 7, 10)
	if err != nil {
		t.Fatalf("TopPages: %v", err)
	}
	if len(pages) != 1 || pages[0].Views != 3 {
		t.Errorf("top pages = %+v, want /hello-world with 3 pageviews", pages)
	}

	campaigns, err := db.CampaignAttribution(ctx, 7, 10, models.UTMFilter{})
	if err != nil {
		t.Fatalf("CampaignAttribution: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("campaigns = %d rows, want 1", len(campaigns))
	}
	c := campaigns[0]
	if c.Events != 2 || c.Pageviews != 1 {
		t.Errorf("campaign = %+v, want 2 events with 1 pageview", c)
	}

	filtered, err := db.CampaignAttribution(ctx, 7, 10, models.UTMFilter{Source: "adwords"})
	if err != nil {
		t.Fatalf("CampaignAttribution filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("filtered campaigns = %+v, want none for unmatched source", filtered)
	}

	trend, err := db.DailyTrend(ctx, 7)
	if err != nil {
		t.Fatalf("DailyTrend: %v", err)
	}
	if len(trend) != 1 || trend[0].Count != 4 {
		t.Errorf("trend = %+v, want one day with 4 events", trend)
	}
}

func TestHealthRoundTripLeavesNoResidue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	elapsed, err := db.HealthRoundTrip(ctx)
	if err != nil {
		t.Fatalf("HealthRoundTrip: %v", err)
	}
	if elapsed <= 0 {
		t.Errorf("elapsed = %v, want positive", elapsed)
	}

	count, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after round trip", count)
	}
}

func TestEventsBySession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, e := range []*models.Event{
		testEvent("s1", models.KindPageview),
		testEvent("s2", models.KindPageview),
		testEvent("s1", models.KindClick),
	} {
		if _, err := db.InsertEvent(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	events, err := db.EventsBySession(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("EventsBySession: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("session events = %d, want 2", len(events))
	}
}
