// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockRetentionStore counts sweeps and optionally fails them.
type mockRetentionStore struct {
	calls   atomic.Int32
	lastAge atomic.Int32
	err     error
}

func (m *mockRetentionStore) DeleteEventsOlderThan(_ context.Context, days int) (int64, error) {
	m.calls.Add(1)
	m.lastAge.Store(int32(days))
	if m.err != nil {
		return 0, m.err
	}
	return 3, nil
}

func TestJanitorSweepsOnTick(t *testing.T) {
	store := &mockRetentionStore{}
	janitor := NewJanitorService(store, 365, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := janitor.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve returned %v, want context deadline", err)
	}

	if store.calls.Load() == 0 {
		t.Fatal("expected at least one sweep")
	}
	if got := store.lastAge.Load(); got != 365 {
		t.Errorf("sweep age = %d, want 365", got)
	}
}

func TestJanitorSurvivesSweepFailure(t *testing.T) {
	// A failing store must not terminate Serve; the janitor retries on the
	// next tick instead of entering supervisor restart backoff.
	store := &mockRetentionStore{err: errors.New("store down")}
	janitor := NewJanitorService(store, 30, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := janitor.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve returned %v, want context deadline", err)
	}
	if store.calls.Load() < 2 {
		t.Errorf("calls = %d, want at least 2 (retry after failure)", store.calls.Load())
	}
}

func TestJanitorDefaultInterval(t *testing.T) {
	janitor := NewJanitorService(&mockRetentionStore{}, 365, 0)
	if janitor.interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h default", janitor.interval)
	}
}

func TestJanitorString(t *testing.T) {
	janitor := NewJanitorService(&mockRetentionStore{}, 365, time.Hour)
	if janitor.String() != "retention-janitor" {
		t.Errorf("String() = %q", janitor.String())
	}
}
