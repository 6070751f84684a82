// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

// Package middleware holds plain net/http middleware applied per route group
// through the router's handler-func adapter.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/pagepulse/internal/metrics"
)

// Instrument records request count, latency, and the in-flight gauge for the
// handler it wraps. The status code is captured through a wrapping writer
// since handlers write the header directly.
func Instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	}
}

// statusRecorder remembers the last status code written. Handlers that never
// call WriteHeader implicitly report 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
