// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/models"
)

// Health handles GET /api/v1/health: the synthetic write-then-delete round
// trip plus event counters. A reachable but write-broken store reports
// degraded with a 500 so orchestrators take the instance out of rotation.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	status := models.HealthStatus{Status: "healthy", Store: true, RoundTrip: true}

	if _, err := h.store.HealthRoundTrip(ctx); err != nil {
		logging.CtxErr(ctx, err).Msg("Health round trip failed")
		status.Status = "degraded"
		status.RoundTrip = false
		if pingErr := h.store.Ping(ctx); pingErr != nil {
			status.Store = false
		}
		rw.ErrorWithDetails(http.StatusInternalServerError, ErrCodeServiceUnavailable,
			"event store round trip failed", status)
		return
	}

	// Counters are informational; their failure does not flip health.
	if total, err := h.store.CountEvents(ctx); err == nil {
		status.TotalEvents = total
	}
	if recent, err := h.store.CountEventsSince(ctx, time.Now().UTC().Add(-24*time.Hour)); err == nil {
		status.Recent24h = recent
	}

	rw.Success(status)
}

// HealthLive handles GET /api/v1/health/live: process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: store reachability without
// the write probe, for readiness gates that run frequently.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.store.Ping(r.Context()); err != nil {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"event store unreachable", nil)
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
