package relevance

import (
	"regexp"
	"strings"

	"openlinkedin/internal/core"
	"openlinkedin/internal/taxonomy"
)

// Pattern families below run against lowercased title+content, so the
// expressions themselves stay lowercase.
var caseStudyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`how we (?:built|scaled|deployed|migrated)`),
	regexp.MustCompile(`case study`),
	regexp.MustCompile(`lessons learned`),
	regexp.MustCompile(`in production at`),
	regexp.MustCompile(`our (?:journey|experience) with`),
	regexp.MustCompile(`post-?mortem`),
	regexp.MustCompile(`scaling .+ to .+ (?:users|requests|queries)`),
}

var infraPatterns = []*regexp.Regexp{
	regexp.MustCompile(`architecture (?:of|for|behind)`),
	regexp.MustCompile(`deep dive`),
	regexp.MustCompile(`infrastructure`),
	regexp.MustCompile(`system design`),
	regexp.MustCompile(`technical design`),
}

var comparisonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:vs\.?|versus|compared to|comparison)`),
	regexp.MustCompile(`which (?:one|framework|tool)`),
	regexp.MustCompile(`(?:pros|cons) of`),
	regexp.MustCompile(`benchmark(?:ing|s)?`),
}

var tutorialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tutorial`),
	regexp.MustCompile(`step[- ]by[- ]step`),
	regexp.MustCompile(`how to`),
	regexp.MustCompile(`getting started`),
	regexp.MustCompile(`guide`),
	regexp.MustCompile(`walkthrough`),
}

var codeSignalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`github`),
	regexp.MustCompile(`code`),
	regexp.MustCompile(`repository`),
}

// Comparison posts only count when a concrete framework is named, otherwise
// "X vs Y" listicles about anything at all would qualify.
var comparisonFrameworks = []string{
	"pytorch",
	"tensorflow",
	"jax",
	"onnx",
	"tensorrt",
	"ray",
	"vllm",
	"langchain",
	"llamaindex",
}

var typeMultipliers = map[core.ContentType]float64{
	core.ContentTypeCaseStudy:     2.0,
	core.ContentTypeInfraDeepDive: 2.0,
	core.ContentTypeComparison:    1.5,
	core.ContentTypeBenchmark:     1.5,
	core.ContentTypeResearchCode:  1.2,
	core.ContentTypeTutorial:      1.2,
	core.ContentTypePureResearch:  0.8,
	core.ContentTypeGeneral:       1.0,
}

// TypeMultiplier returns the score multiplier for a content type, 1.0 for
// anything unrecognised.
func TypeMultiplier(ct core.ContentType) float64 {
	if m, ok := typeMultipliers[ct]; ok {
		return m
	}
	return 1.0
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func countMatching(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// Matching always runs against lowercased text, so keywords are lowered on
// comparison (the taxonomy keeps their display casing).
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func containsAnyKey(text string, weights map[string]int) bool {
	for kw := range weights {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ClassifyContentType buckets lowercased title+content text into one content
// type. Checks run in precedence order and the first hit wins.
func ClassifyContentType(text string) core.ContentType {
	if matchesAny(text, caseStudyPatterns) {
		return core.ContentTypeCaseStudy
	}
	if countMatching(text, infraPatterns) >= 2 {
		return core.ContentTypeInfraDeepDive
	}
	if matchesAny(text, comparisonPatterns) && containsAny(text, comparisonFrameworks) {
		return core.ContentTypeComparison
	}

	hasResearch := containsAnyKey(text, taxonomy.ResearchKeywords)
	if matchesAny(text, codeSignalPatterns) && hasResearch {
		return core.ContentTypeResearchCode
	}
	if matchesAny(text, tutorialPatterns) {
		return core.ContentTypeTutorial
	}
	if hasResearch && !containsAnyKey(text, taxonomy.ProductionKeywords) {
		return core.ContentTypePureResearch
	}
	return core.ContentTypeGeneral
}
