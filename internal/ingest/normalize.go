// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/pagepulse/internal/models"
)

// Record is the canonical shape produced by Normalize: one value per
// logical field regardless of which client spelling supplied it.
type Record struct {
	SessionID string
	RawKind   string
	Kind      models.Kind
	Page      string
	URL       string
	EventName string
	PostID    string

	// OccurredAt is zero when the client sent no usable timestamp.
	OccurredAt time.Time

	UTM         models.UTM
	ScrollDepth *float64
	Viewport    *models.Viewport
	Coordinates *models.Coordinates

	// Metadata carries unknown client keys verbatim plus normalization
	// provenance under "received_fields". Never nil.
	Metadata map[string]any
}

// fieldAlias binds a logical field to its accepted spellings in precedence
// order: the first spelling present in the payload wins. camelCase spellings
// are listed before snake_case ones, and among the kind spellings
// "eventType" beats the bare "type". Historical clients disagree on that
// order; this table is the single source of truth.
type fieldAlias struct {
	field   string
	aliases []string
}

var fieldAliases = []fieldAlias{
	{"sessionId", []string{"sessionId", "session_id"}},
	{"kind", []string{"eventType", "type", "kind", "event_type"}},
	{"page", []string{"page", "path", "page_path"}},
	{"url", []string{"url", "href"}},
	{"eventName", []string{"eventName", "event_name", "name"}},
	{"timestamp", []string{"timestamp", "occurredAt", "occurred_at"}},
	{"postId", []string{"postId", "post_id"}},
	{"utmSource", []string{"utmSource", "utm_source"}},
	{"utmMedium", []string{"utmMedium", "utm_medium"}},
	{"utmCampaign", []string{"utmCampaign", "utm_campaign"}},
	{"utmContent", []string{"utmContent", "utm_content"}},
	{"utmTerm", []string{"utmTerm", "utm_term"}},
	{"scrollDepth", []string{"scrollDepth", "scroll_depth", "depth"}},
	{"viewportSize", []string{"viewportSize", "viewport_size", "viewport", "screenResolution", "screen_resolution"}},
	{"coordinates", []string{"coordinates", "coords"}},
}

// provenanceKey is the metadata key holding which alias spelling actually
// supplied each logical field.
const provenanceKey = "received_fields"

// Normalize resolves every accepted alias of a logical field into one
// canonical Record. It is a pure transform with no error path: an empty
// payload yields an empty Record with an empty (non-nil) metadata map.
// Unknown extra keys are preserved verbatim inside Metadata so no
// client-supplied signal is silently lost.
func Normalize(payload map[string]any) *Record {
	rec := &Record{
		Kind:     models.KindCustom,
		Metadata: make(map[string]any),
	}
	if len(payload) == 0 {
		return rec
	}

	consumed := make(map[string]struct{}, len(payload))
	received := make(map[string]string)

	for _, fa := range fieldAliases {
		for _, alias := range fa.aliases {
			val, ok := payload[alias]
			if !ok || val == nil {
				continue
			}
			// Every spelling of a resolved field is consumed, but only the
			// first one present contributes the value.
			if _, done := received[fa.field]; !done {
				if rec.apply(fa.field, val) {
					received[fa.field] = alias
				}
			}
			consumed[alias] = struct{}{}
		}
	}

	// Preserve everything the alias table does not know about.
	for key, val := range payload {
		if _, ok := consumed[key]; ok {
			continue
		}
		rec.Metadata[key] = val
	}

	if len(received) > 0 {
		rec.Metadata[provenanceKey] = received
	}

	rec.Kind = Classify(rec.RawKind)
	return rec
}

// apply assigns one logical field from a raw payload value, coercing
// client-side type drift (numbers as strings, epoch timestamps, WxH
// resolution strings). Returns false when the value was unusable.
func (r *Record) apply(field string, val any) bool {
	switch field {
	case "sessionId":
		r.SessionID = asString(val)
		return r.SessionID != ""
	case "kind":
		r.RawKind = asString(val)
		return r.RawKind != ""
	case "page":
		r.Page = asString(val)
		return r.Page != ""
	case "url":
		r.URL = asString(val)
		return r.URL != ""
	case "eventName":
		r.EventName = asString(val)
		return r.EventName != ""
	case "postId":
		r.PostID = asString(val)
		return r.PostID != ""
	case "timestamp":
		ts, ok := asTime(val)
		if ok {
			r.OccurredAt = ts
		}
		return ok
	case "utmSource":
		r.UTM.Source = asString(val)
		return r.UTM.Source != ""
	case "utmMedium":
		r.UTM.Medium = asString(val)
		return r.UTM.Medium != ""
	case "utmCampaign":
		r.UTM.Campaign = asString(val)
		return r.UTM.Campaign != ""
	case "utmContent":
		r.UTM.Content = asString(val)
		return r.UTM.Content != ""
	case "utmTerm":
		r.UTM.Term = asString(val)
		return r.UTM.Term != ""
	case "scrollDepth":
		depth, ok := asFloat(val)
		if ok {
			r.ScrollDepth = &depth
		}
		return ok
	case "viewportSize":
		vp, ok := asViewport(val)
		if ok {
			r.Viewport = vp
		}
		return ok
	case "coordinates":
		c, ok := asCoordinates(val)
		if ok {
			r.Coordinates = c
		}
		return ok
	default:
		return false
	}
}

// asString coerces scalar payload values to a trimmed string.
func asString(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers arrive as float64; postId in particular is numeric
		// in several client generations.
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// asFloat coerces numeric payload values, accepting numeric strings.
func asFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asTime accepts RFC3339 strings and epoch seconds or milliseconds.
func asTime(val any) (time.Time, bool) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UTC(), true
		}
		if epoch, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToTime(epoch), true
		}
		return time.Time{}, false
	case float64:
		return epochToTime(v), true
	default:
		return time.Time{}, false
	}
}

// epochToTime treats values past 1e12 as milliseconds, otherwise seconds.
func epochToTime(epoch float64) time.Time {
	if epoch > 1e12 {
		return time.UnixMilli(int64(epoch)).UTC()
	}
	return time.Unix(int64(epoch), 0).UTC()
}

// asViewport accepts {width,height} maps and "1920x1080" resolution strings.
func asViewport(val any) (*models.Viewport, bool) {
	switch v := val.(type) {
	case map[string]any:
		w, wok := asFloat(v["width"])
		h, hok := asFloat(v["height"])
		if !wok || !hok {
			return nil, false
		}
		return &models.Viewport{Width: int(w), Height: int(h)}, true
	case string:
		parts := strings.SplitN(strings.ToLower(strings.TrimSpace(v)), "x", 2)
		if len(parts) != 2 {
			return nil, false
		}
		w, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
		h, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if werr != nil || herr != nil {
			return nil, false
		}
		return &models.Viewport{Width: w, Height: h}, true
	default:
		return nil, false
	}
}

// asCoordinates accepts {x,y} maps.
func asCoordinates(val any) (*models.Coordinates, bool) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, false
	}
	x, xok := asFloat(m["x"])
	y, yok := asFloat(m["y"])
	if !xok || !yok {
		return nil, false
	}
	return &models.Coordinates{X: int(x), Y: int(y)}, true
}
