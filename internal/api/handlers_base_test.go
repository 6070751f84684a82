// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pagepulse/internal/config"
	"github.com/tomtom215/pagepulse/internal/database"
	"github.com/tomtom215/pagepulse/internal/models"
)

// mockStore is a hand-written EventStore double. Fields select canned
// behavior; counters record what the handlers asked of the store.
type mockStore struct {
	insertErr   error
	insertCalls int
	inserted    []*models.Event

	batchFailIndexes map[int]error
	batchCalls       int

	queryErr   error
	queryCalls int

	totalEvents    int64
	uniqueSessions int64
	byKind         []models.KindCount
	trend          []models.DailyCount
	topPages       []models.PageCount
	campaigns      []models.CampaignCount
	events         []models.Event

	deleteCalls   int
	deletedCount  int64
	deleteErr     error
	roundTripErr  error
	roundTripDone int
	pingErr       error
}

func (m *mockStore) InsertEvent(_ context.Context, event *models.Event) (string, error) {
	m.insertCalls++
	if m.insertErr != nil {
		return "", m.insertErr
	}
	m.inserted = append(m.inserted, event)
	return "00000000-0000-0000-0000-000000000001", nil
}

func (m *mockStore) InsertEventsBatch(_ context.Context, events []*models.Event) (int, []database.BatchError) {
	m.batchCalls++
	saved := 0
	var failures []database.BatchError
	for i, event := range events {
		if err, ok := m.batchFailIndexes[i]; ok {
			failures = append(failures, database.BatchError{Index: i, Err: err})
			continue
		}
		m.inserted = append(m.inserted, event)
		saved++
	}
	return saved, failures
}

func (m *mockStore) TotalEvents(context.Context, int, string) (int64, error) {
	m.queryCalls++
	return m.totalEvents, m.queryErr
}

func (m *mockStore) UniqueSessions(context.Context, int, string) (int64, error) {
	m.queryCalls++
	return m.uniqueSessions, m.queryErr
}

func (m *mockStore) KindBreakdown(context.Context, int, string) ([]models.KindCount, error) {
	m.queryCalls++
	return m.byKind, m.queryErr
}

func (m *mockStore) DailyTrend(context.Context, int) ([]models.DailyCount, error) {
	m.queryCalls++
	return m.trend, m.queryErr
}

func (m *mockStore) TopPages(context.Context, int, int) ([]models.PageCount, error) {
	m.queryCalls++
	return m.topPages, m.queryErr
}

func (m *mockStore) CampaignAttribution(context.Context, int, int, models.UTMFilter) ([]models.CampaignCount, error) {
	m.queryCalls++
	return m.campaigns, m.queryErr
}

func (m *mockStore) ListRecentEvents(context.Context, int, int) ([]models.Event, error) {
	m.queryCalls++
	return m.events, m.queryErr
}

func (m *mockStore) CountEvents(context.Context) (int64, error) {
	m.queryCalls++
	return m.totalEvents, m.queryErr
}

func (m *mockStore) CountEventsSince(context.Context, time.Time) (int64, error) {
	m.queryCalls++
	return m.totalEvents, m.queryErr
}

func (m *mockStore) DeleteEventsOlderThan(context.Context, int) (int64, error) {
	m.deleteCalls++
	return m.deletedCount, m.deleteErr
}

func (m *mockStore) HealthRoundTrip(context.Context) (time.Duration, error) {
	m.roundTripDone++
	return time.Millisecond, m.roundTripErr
}

func (m *mockStore) Ping(context.Context) error {
	return m.pingErr
}

var errStoreDown = errors.New("store down")

// testConfig returns a config with the limits the handlers consult.
func testConfig() *config.Config {
	return &config.Config{
		Ingest: config.IngestConfig{
			MaxBatchSize: 1000,
			MaxBodyBytes: 1 << 20,
		},
		API: config.APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
			TopPages:        10,
			TopCampaigns:    20,
			UTMReportLimit:  100,
		},
		Security: config.SecurityConfig{
			AdminToken: "test-admin-token-0123456789",
		},
	}
}

func newTestHandler(store *mockStore) *Handler {
	return NewHandler(store, testConfig())
}

// doRequest runs a handler and decodes the envelope.
func doRequest(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler(rec, req)

	var envelope APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return rec, envelope
}
