// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/pagepulse/internal/config"
)

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	store EventStore
	cfg   *config.Config
}

// NewHandler creates the handler set backed by the given store.
func NewHandler(store EventStore, cfg *config.Config) *Handler {
	return &Handler{
		store: store,
		cfg:   cfg,
	}
}

// databaseError writes the store-failure response for a handler. Production
// keeps the generic message; development includes the underlying error in
// details so store problems are debuggable from the response alone.
func (h *Handler) databaseError(rw *ResponseWriter, err error) {
	if h.cfg.IsDevelopment() {
		rw.DatabaseErrorDetailed(err)
		return
	}
	rw.DatabaseError(err)
}

// queryInt parses an integer query parameter, returning def when absent.
// A present-but-unparsable value returns an error so the caller can 400
// instead of silently substituting the default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// clientIP extracts the remote IP, preferring X-Forwarded-For set by a
// trusted proxy (chi's RealIP middleware rewrites RemoteAddr upstream).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
