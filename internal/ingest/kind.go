// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

// Package ingest implements the analytics ingestion pipeline: field
// normalization across client naming conventions, event kind classification
// with a never-fail fallback, and the minimal write-time contract.
package ingest

import (
	"strings"

	"github.com/tomtom215/pagepulse/internal/models"
)

// vocabulary is the closed set of canonical kinds. Classification is
// identity for members of this set.
var vocabulary = map[models.Kind]struct{}{
	models.KindPageview:             {},
	models.KindClick:                {},
	models.KindScroll:               {},
	models.KindConversion:           {},
	models.KindAffiliateClick:       {},
	models.KindSocialShare:          {},
	models.KindNewsletterEngagement: {},
	models.KindOutboundClick:        {},
	models.KindPostView:             {},
	models.KindFormSubmit:           {},
	models.KindSessionStart:         {},
	models.KindSessionEnd:           {},
	models.KindHeatmapInteraction:   {},
	models.KindError:                {},
	models.KindPerformance:          {},
	models.KindHealthCheck:          {},
	models.KindCustom:               {},
	models.KindOther:                {},
}

// kindAliases maps historical client synonyms onto the vocabulary.
// Keys are lowercase; lookup is case-insensitive after trimming.
// The table has accumulated one entry per observed client generation —
// extend it here rather than special-casing in handlers.
var kindAliases = map[string]models.Kind{
	"page_view":             models.KindPageview,
	"view":                  models.KindPageview,
	"post":                  models.KindPostView,
	"postview":              models.KindPostView,
	"post_read":             models.KindPostView,
	"scroll_milestone":      models.KindScroll,
	"scroll_depth":          models.KindScroll,
	"mouse_movements_batch": models.KindHeatmapInteraction,
	"mouse_movement":        models.KindHeatmapInteraction,
	"heatmap":               models.KindHeatmapInteraction,
	"share":                 models.KindSocialShare,
	"social":                models.KindSocialShare,
	"newsletter":            models.KindNewsletterEngagement,
	"outbound":              models.KindOutboundClick,
	"external_link":         models.KindOutboundClick,
	"affiliate":             models.KindAffiliateClick,
	"form":                  models.KindFormSubmit,
	"submit":                models.KindFormSubmit,
	"js_error":              models.KindError,
	"exception":             models.KindError,
	"perf":                  models.KindPerformance,
	"timing":                models.KindPerformance,
	"web_vitals":            models.KindPerformance,
}

// Classify maps an arbitrary input string to a canonical kind. It never
// fails: vocabulary members classify to themselves, known synonyms through
// the alias table, everything else (including empty input) to KindCustom.
// Callers must keep the pre-classification string as RawKind so new event
// shapes are discoverable inside the fallback bucket.
func Classify(input string) models.Kind {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return models.KindCustom
	}

	if _, ok := vocabulary[models.Kind(s)]; ok {
		return models.Kind(s)
	}
	if kind, ok := kindAliases[s]; ok {
		return kind
	}
	return models.KindCustom
}

// IsVocabularyKind reports whether s is a member of the canonical vocabulary.
// Used by the reporting endpoints to reject unknown kind filters early.
func IsVocabularyKind(s string) bool {
	_, ok := vocabulary[models.Kind(strings.ToLower(strings.TrimSpace(s)))]
	return ok
}
