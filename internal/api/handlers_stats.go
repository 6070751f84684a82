// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/pagepulse/internal/ingest"
	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/models"
	"github.com/tomtom215/pagepulse/internal/validation"
)

// statsRequest bounds the aggregation window parameters. Days outside
// [1,365] are rejected before any query runs.
type statsRequest struct {
	Days int    `validate:"min=1,max=365"`
	Kind string `validate:"omitempty,max=64"`
}

// parseWindow extracts and validates the days/kind query parameters,
// writing the 400 response itself on failure.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (statsRequest, bool) {
	rw := NewResponseWriter(w, r)

	days, err := queryInt(r, "days", 7)
	if err != nil {
		rw.BadRequest("days must be an integer")
		return statsRequest{}, false
	}

	req := statsRequest{
		Days: days,
		Kind: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind"))),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return statsRequest{}, false
	}
	if req.Kind != "" && !ingest.IsVocabularyKind(req.Kind) {
		rw.BadRequest(fmt.Sprintf("unknown kind %q", req.Kind))
		return statsRequest{}, false
	}

	return req, true
}

// Stats handles GET /api/v1/stats: window totals, unique sessions, the
// recent-24h counter, and the per-kind breakdown.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	total, err := h.store.TotalEvents(ctx, req.Days, req.Kind)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	sessions, err := h.store.UniqueSessions(ctx, req.Days, req.Kind)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	recent, err := h.store.TotalEvents(ctx, 1, req.Kind)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	byKind, err := h.store.KindBreakdown(ctx, req.Days, req.Kind)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	rw.Success(models.StatsSummary{
		Days:           req.Days,
		Kind:           req.Kind,
		TotalEvents:    total,
		UniqueSessions: sessions,
		Recent24h:      recent,
		ByKind:         byKind,
	})
}

// Dashboard handles GET /api/v1/dashboard: the combined per-kind summary,
// daily trend, top pages, and campaign attribution for one window.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	byKind, err := h.store.KindBreakdown(ctx, req.Days, "")
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	trend, err := h.store.DailyTrend(ctx, req.Days)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	topPages, err := h.store.TopPages(ctx, req.Days, h.cfg.API.TopPages)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	campaigns, err := h.store.CampaignAttribution(ctx, req.Days, h.cfg.API.TopCampaigns, models.UTMFilter{})
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	var total int64
	for _, kc := range byKind {
		total += kc.Count
	}

	rw.Success(models.DashboardSummary{
		Days:        req.Days,
		ByKind:      byKind,
		DailyTrend:  trend,
		TopPages:    topPages,
		Campaigns:   campaigns,
		TotalEvents: total,
	})
}

// UTMReport handles GET /api/v1/utm-report: campaign attribution narrowed
// by any supplied source/medium/campaign dimension.
func (h *Handler) UTMReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	rw := NewResponseWriter(w, r)

	filter := models.UTMFilter{
		Source:   r.URL.Query().Get("source"),
		Medium:   r.URL.Query().Get("medium"),
		Campaign: r.URL.Query().Get("campaign"),
	}

	campaigns, err := h.store.CampaignAttribution(r.Context(), req.Days, h.cfg.API.UTMReportLimit, filter)
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	rw.Success(map[string]any{
		"days":      req.Days,
		"campaigns": campaigns,
	})
}

// eventsRequest bounds the recent-events listing parameters.
type eventsRequest struct {
	Limit  int `validate:"min=1"`
	Offset int `validate:"min=0"`
}

// Events handles GET /api/v1/events: the newest-first listing used for
// operator debugging.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := queryInt(r, "limit", h.cfg.API.DefaultPageSize)
	if err != nil {
		rw.BadRequest("limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		rw.BadRequest("offset must be an integer")
		return
	}

	req := eventsRequest{Limit: limit, Offset: offset}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if req.Limit > h.cfg.API.MaxPageSize {
		req.Limit = h.cfg.API.MaxPageSize
	}

	events, err := h.store.ListRecentEvents(r.Context(), req.Limit, req.Offset)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Events listing failed")
		h.databaseError(rw, err)
		return
	}

	total, err := h.store.CountEvents(r.Context())
	if err != nil {
		h.databaseError(rw, err)
		return
	}

	rw.SuccessWithPagination(events, &PaginationMeta{
		Total:   total,
		Count:   len(events),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: int64(req.Offset+len(events)) < total,
	})
}
