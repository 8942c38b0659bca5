// Package rerank learns a personalised ordering for feed items from
// liked/disliked labels. A small gradient-boosted tree ensemble is trained on
// the rule-based scores and item shape features; until enough labels exist
// the rule-based ordering stands.
package rerank

import (
	"strings"

	"openlinkedin/internal/core"
)

// Numeric feature count and the full ordered feature list. The categorical
// features (content type and source) are label-encoded and appended after
// the numeric block.
const numNumericFeatures = 11

var featureNames = []string{
	"production_score",
	"executive_score",
	"keyword_score",
	"type_multiplier",
	"freshness_multiplier",
	"title_length",
	"content_length",
	"num_matched_keywords",
	"num_matched_categories",
	"has_url",
	"rule_based_score",
	"content_type",
	"source",
}

// sample is one feature row. Categorical values stay as strings until the
// model's label encoder maps them.
type sample struct {
	numeric     [numNumericFeatures]float64
	contentType string
	source      string
}

// extractFeatures derives the feature row for one scored item. Length
// features count words, not bytes, so multi-byte text does not skew them.
func extractFeatures(item core.ScoredItem) sample {
	var s sample
	s.numeric[0] = item.ProductionScore
	s.numeric[1] = item.ExecutiveScore
	s.numeric[2] = item.KeywordScore
	s.numeric[3] = item.TypeMultiplier
	s.numeric[4] = item.FreshnessMultiplier
	s.numeric[5] = float64(len(strings.Fields(item.Title)))
	s.numeric[6] = float64(len(strings.Fields(item.Content)))
	s.numeric[7] = float64(len(item.MatchedKeywords))
	s.numeric[8] = float64(len(item.MatchedCategories))
	if item.URL != "" {
		s.numeric[9] = 1
	}
	s.numeric[10] = item.FinalScore

	s.contentType = string(item.ContentType)
	if s.contentType == "" {
		s.contentType = string(core.ContentTypeGeneral)
	}
	s.source = item.SourceName
	return s
}
