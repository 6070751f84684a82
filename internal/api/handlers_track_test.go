// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pagepulse/internal/models"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestTrackPageviewCreated(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/pageview", `{"sessionId":"s1","page":"/hello-world"}`)
	rec, envelope := doRequest(t, h.TrackPageview, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	if store.insertCalls != 1 {
		t.Fatalf("insertCalls = %d, want 1", store.insertCalls)
	}
	if got := store.inserted[0].Kind; got != models.KindPageview {
		t.Errorf("kind = %q, want %q", got, models.KindPageview)
	}
}

func TestTrackPageviewKeepsExplicitKind(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/pageview", `{"sessionId":"s1","page":"/p","eventType":"scroll_depth"}`)
	rec, _ := doRequest(t, h.TrackPageview, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := store.inserted[0].Kind; got != models.KindScroll {
		t.Errorf("kind = %q, want %q", got, models.KindScroll)
	}
	if got := store.inserted[0].RawKind; got != "scroll_depth" {
		t.Errorf("raw kind = %q, want scroll_depth", got)
	}
}

func TestTrackPageviewMissingSession(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/pageview", `{"page":"/hello"}`)
	rec, envelope := doRequest(t, h.TrackPageview, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Message == "" {
		t.Fatal("error body must not be empty")
	}
	if store.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0 (nothing may reach the store)", store.insertCalls)
	}
}

func TestTrackPageviewMissingPageAndURL(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/pageview", `{"sessionId":"s1","eventName":"n"}`)
	rec, _ := doRequest(t, h.TrackPageview, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", store.insertCalls)
	}
}

func TestTrackPageviewMalformedBody(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/pageview", `{"sessionId":`)
	rec, _ := doRequest(t, h.TrackPageview, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTrackEventClassifiesUnknownToCustom(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/event", `{"sessionId":"s1","eventName":"cta","eventType":"totally_new"}`)
	rec, _ := doRequest(t, h.TrackEvent, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	event := store.inserted[0]
	if event.Kind != models.KindCustom {
		t.Errorf("kind = %q, want custom", event.Kind)
	}
	if event.RawKind != "totally_new" {
		t.Errorf("raw kind = %q, want totally_new", event.RawKind)
	}
}

func TestTrackEventRequiresEventName(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/event", `{"sessionId":"s1","page":"/p"}`)
	rec, _ := doRequest(t, h.TrackEvent, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", store.insertCalls)
	}
}

func TestTrackEventStoreFailure(t *testing.T) {
	store := &mockStore{insertErr: errStoreDown}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/event", `{"sessionId":"s1","eventName":"cta"}`)
	rec, envelope := doRequest(t, h.TrackEvent, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeDatabaseError {
		t.Errorf("error code = %v, want %s", envelope.Error, ErrCodeDatabaseError)
	}
}

func TestTrackPostview(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/postview", `{"postId":"42"}`)
	rec, _ := doRequest(t, h.TrackPostview, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	event := store.inserted[0]
	if event.Kind != models.KindPostView {
		t.Errorf("kind = %q, want post_view", event.Kind)
	}
	if event.PostID != "42" {
		t.Errorf("post id = %q, want 42", event.PostID)
	}
	if event.SessionID == "" {
		t.Error("session id must be synthesized when absent")
	}
	if event.Metadata["synthesized_session"] != true {
		t.Error("synthesized session must be flagged in metadata")
	}
}

func TestTrackPostviewKeepsClientSession(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/postview", `{"postId":"42","sessionId":"s9"}`)
	rec, _ := doRequest(t, h.TrackPostview, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := store.inserted[0].SessionID; got != "s9" {
		t.Errorf("session id = %q, want s9", got)
	}
}

func TestTrackPostviewRequiresPostID(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	req := postJSON("/api/v1/track/postview", `{"sessionId":"s1"}`)
	rec, _ := doRequest(t, h.TrackPostview, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", store.insertCalls)
	}
}

func bulkBody(events ...string) string {
	return `{"events":[` + strings.Join(events, ",") + `]}`
}

func TestTrackBulkAllValid(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	body := bulkBody(
		`{"sessionId":"s1","page":"/a"}`,
		`{"sessionId":"s1","eventName":"cta"}`,
		`{"sessionId":"s2","url":"https://blog.example/b"}`,
	)
	rec, envelope := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var result models.BulkResult
	raw, _ := json.Marshal(envelope.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.SavedCount != 3 || result.FailedCount != 0 {
		t.Errorf("saved/failed = %d/%d, want 3/0", result.SavedCount, result.FailedCount)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want empty", result.Errors)
	}
}

func TestTrackBulkPartialValidationFailure(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	body := bulkBody(
		`{"sessionId":"s1","page":"/a"}`,
		`{"page":"/missing-session"}`,
		`{"sessionId":"s3","eventName":"cta"}`,
	)
	rec, envelope := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (partial success); body %s", rec.Code, rec.Body.String())
	}

	var result models.BulkResult
	raw, _ := json.Marshal(envelope.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.SavedCount != 2 || result.FailedCount != 1 {
		t.Errorf("saved/failed = %d/%d, want 2/1", result.SavedCount, result.FailedCount)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "event 1") {
		t.Errorf("errors = %v, want one entry referencing event 1", result.Errors)
	}
}

func TestTrackBulkStoreFailureIndexesMapBack(t *testing.T) {
	// Entry 1 fails validation and never reaches the store; entry 2 fails at
	// the store. The store sees it at batch index 1, but the response must
	// reference the original position 2.
	store := &mockStore{batchFailIndexes: map[int]error{1: errors.New("constraint violated")}}
	h := newTestHandler(store)

	body := bulkBody(
		`{"sessionId":"s1","page":"/a"}`,
		`{"page":"/missing-session"}`,
		`{"sessionId":"s3","eventName":"cta"}`,
	)
	rec, envelope := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var result models.BulkResult
	raw, _ := json.Marshal(envelope.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.SavedCount != 1 || result.FailedCount != 2 {
		t.Errorf("saved/failed = %d/%d, want 1/2", result.SavedCount, result.FailedCount)
	}

	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "event 2") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want one referencing event 2", result.Errors)
	}
}

func TestTrackBulkAllInvalid(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	body := bulkBody(`{"page":"/a"}`, `{"page":"/b"}`)
	rec, _ := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.batchCalls != 0 {
		t.Errorf("batchCalls = %d, want 0 (nothing may be written)", store.batchCalls)
	}
}

func TestTrackBulkOverCap(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	entries := make([]string, 1001)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"sessionId":"s%d","page":"/p"}`, i)
	}
	rec, _ := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", bulkBody(entries...)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.batchCalls != 0 {
		t.Errorf("batchCalls = %d, want 0", store.batchCalls)
	}
}

func TestTrackBulkEmpty(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store)

	rec, _ := doRequest(t, h.TrackBulk, postJSON("/api/v1/track/bulk", `{"events":[]}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
