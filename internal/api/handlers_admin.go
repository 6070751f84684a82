// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/tomtom215/pagepulse/internal/logging"
	"github.com/tomtom215/pagepulse/internal/models"
	"github.com/tomtom215/pagepulse/internal/validation"
)

// cleanupRequest bounds the retention cutoff for manual cleanup.
type cleanupRequest struct {
	Days int `validate:"min=1,max=3650"`
}

// authorizeAdmin checks the Bearer credential against the configured admin
// token with a constant-time comparison. Cleanup is refused entirely when no
// token is configured.
func (h *Handler) authorizeAdmin(r *http.Request) bool {
	token := h.cfg.Security.AdminToken
	if token == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}

// Cleanup handles DELETE /api/v1/cleanup: removes events older than the
// given number of days (default 365). Requires the admin bearer token.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.authorizeAdmin(r) {
		logging.Ctx(r.Context()).Warn().
			Str("ip", clientIP(r)).
			Msg("Unauthorized cleanup attempt")
		rw.Unauthorized("valid admin token required")
		return
	}

	days, err := queryInt(r, "days", 365)
	if err != nil {
		rw.BadRequest("days must be an integer")
		return
	}

	req := cleanupRequest{Days: days}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	deleted, err := h.store.DeleteEventsOlderThan(r.Context(), req.Days)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Cleanup failed")
		h.databaseError(rw, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("deleted", deleted).
		Int("older_than_days", req.Days).
		Msg("Cleanup completed")

	rw.Success(models.CleanupResult{
		DeletedCount: deleted,
		OlderThan:    req.Days,
	})
}
