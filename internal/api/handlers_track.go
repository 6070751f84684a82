// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/pagepulse/internal/ingest"
	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/metrics"
	"github.com/tomtom215/pagepulse/internal/models"
)

// trackResponse is the ingestion acknowledgement payload.
type trackResponse struct {
	ID   string      `json:"id"`
	Kind models.Kind `json:"kind"`
}

// decodeTrackBody reads and decodes a tracking payload into the raw key/value
// map the normalizer consumes. It enforces the body size cap and writes the
// error response itself on failure.
func (h *Handler) decodeTrackBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Ingest.MaxBodyBytes)

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordIngestReject("body_size")
			rw.PayloadTooLarge(fmt.Sprintf("request body exceeds %d bytes", h.cfg.Ingest.MaxBodyBytes))
			return nil, false
		}
		metrics.RecordIngestReject("decode")
		rw.BadRequest("request body must be a JSON object")
		return nil, false
	}

	return payload, true
}

// enrichMetadata records request-derived context on the event without
// overwriting anything the client sent under the same keys.
func enrichMetadata(rec *ingest.Record, r *http.Request) {
	setIfAbsent := func(key, val string) {
		if val == "" {
			return
		}
		if _, exists := rec.Metadata[key]; !exists {
			rec.Metadata[key] = val
		}
	}

	setIfAbsent("ip", clientIP(r))
	setIfAbsent("user_agent", r.UserAgent())
	setIfAbsent("referrer", r.Referer())
}

// insertAndRespond persists a validated record and writes the 201 acknowledgement.
func (h *Handler) insertAndRespond(w http.ResponseWriter, r *http.Request, rec *ingest.Record) {
	rw := NewResponseWriter(w, r)

	event := rec.ToEvent(time.Now().UTC())
	id, err := h.store.InsertEvent(r.Context(), event)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Event insert failed")
		h.databaseError(rw, err)
		return
	}

	rw.Created(trackResponse{ID: id, Kind: event.Kind})
}

// TrackPageview handles POST /api/v1/track/pageview.
// A payload without an explicit kind is recorded as a pageview.
func (h *Handler) TrackPageview(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeTrackBody(w, r)
	if !ok {
		return
	}

	rec := ingest.Normalize(payload)
	if rec.RawKind == "" {
		rec.RawKind = string(models.KindPageview)
		rec.Kind = models.KindPageview
	}
	enrichMetadata(rec, r)

	rw := NewResponseWriter(w, r)
	if verr := ingest.Validate(rec); verr != nil {
		metrics.RecordIngestReject("validation")
		rw.BadRequest(verr.Error())
		return
	}
	if rec.Page == "" && rec.URL == "" {
		metrics.RecordIngestReject("validation")
		rw.BadRequest("missing page/url")
		return
	}

	h.insertAndRespond(w, r, rec)
}

// TrackEvent handles POST /api/v1/track/event.
// Kinds outside the vocabulary classify to custom with the raw string kept.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeTrackBody(w, r)
	if !ok {
		return
	}

	rec := ingest.Normalize(payload)
	enrichMetadata(rec, r)

	rw := NewResponseWriter(w, r)
	if verr := ingest.Validate(rec); verr != nil {
		metrics.RecordIngestReject("validation")
		rw.BadRequest(verr.Error())
		return
	}
	if rec.EventName == "" {
		metrics.RecordIngestReject("validation")
		rw.BadRequest("missing eventName")
		return
	}

	h.insertAndRespond(w, r, rec)
}

// TrackPostview handles POST /api/v1/track/postview.
// Requires a postId; synthesizes a session ID when the beacon carries none,
// since post-read pings often fire outside a tracked session.
func (h *Handler) TrackPostview(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeTrackBody(w, r)
	if !ok {
		return
	}

	rec := ingest.Normalize(payload)
	rec.RawKind = string(models.KindPostView)
	rec.Kind = models.KindPostView
	if rec.SessionID == "" {
		rec.SessionID = uuid.New().String()
		rec.Metadata["synthesized_session"] = true
	}
	if rec.Page == "" && rec.URL == "" && rec.EventName == "" {
		rec.EventName = "post_read"
	}
	enrichMetadata(rec, r)

	rw := NewResponseWriter(w, r)
	if rec.PostID == "" {
		metrics.RecordIngestReject("validation")
		rw.BadRequest("missing postId")
		return
	}
	if verr := ingest.Validate(rec); verr != nil {
		metrics.RecordIngestReject("validation")
		rw.BadRequest(verr.Error())
		return
	}

	h.insertAndRespond(w, r, rec)
}

// bulkRequest is the POST /track/bulk body shape.
type bulkRequest struct {
	Events []map[string]any `json:"events"`
}

// TrackBulk handles POST /api/v1/track/bulk.
//
// Batches above the configured cap are rejected outright. Each entry is
// normalized and validated independently; entries failing validation are
// reported by index and never reach the store, while valid entries persist
// with per-record isolation. Partial success is a success response; a batch
// where every entry fails is a 400 with nothing written.
func (h *Handler) TrackBulk(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Ingest.MaxBodyBytes)

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordIngestReject("body_size")
			rw.PayloadTooLarge(fmt.Sprintf("request body exceeds %d bytes", h.cfg.Ingest.MaxBodyBytes))
			return
		}
		metrics.RecordIngestReject("decode")
		rw.BadRequest("request body must be a JSON object with an events array")
		return
	}

	if len(req.Events) == 0 {
		metrics.RecordIngestReject("validation")
		rw.BadRequest("events array is empty")
		return
	}
	if len(req.Events) > h.cfg.Ingest.MaxBatchSize {
		metrics.RecordIngestReject("batch_size")
		rw.BadRequest(fmt.Sprintf("batch exceeds maximum of %d events", h.cfg.Ingest.MaxBatchSize))
		return
	}

	now := time.Now().UTC()
	result := models.BulkResult{Errors: []string{}}

	// Validate every entry first so a batch with no valid entries is
	// rejected before anything touches the store.
	valid := make([]*models.Event, 0, len(req.Events))
	validIndex := make([]int, 0, len(req.Events))
	for i, payload := range req.Events {
		rec := ingest.Normalize(payload)
		enrichMetadata(rec, r)
		if verr := ingest.Validate(rec); verr != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("event %d: %s", i, verr.Error()))
			continue
		}
		valid = append(valid, rec.ToEvent(now))
		validIndex = append(validIndex, i)
	}

	if len(valid) == 0 {
		metrics.RecordIngestReject("validation")
		rw.BadRequestWithDetails("no valid events in batch", result.Errors)
		return
	}

	saved, failures := h.store.InsertEventsBatch(r.Context(), valid)
	result.SavedCount = saved
	for _, f := range failures {
		result.FailedCount++
		result.Errors = append(result.Errors, fmt.Sprintf("event %d: %s", validIndex[f.Index], f.Err.Error()))
	}

	if result.SavedCount == 0 {
		rw.ErrorWithDetails(http.StatusInternalServerError, ErrCodeDatabaseError,
			"no events could be written", result.Errors)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("saved", result.SavedCount).
		Int("failed", result.FailedCount).
		Msg("Bulk batch processed")

	rw.Success(result)
}
