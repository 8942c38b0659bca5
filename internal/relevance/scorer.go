// Package relevance scores feed content along independent axes: production
// relevance, executive positioning, keyword match, content type, and
// freshness. Scoring is pure: the same input always yields the same record.
package relevance

import (
	"math"
	"strings"
	"time"

	"openlinkedin/internal/core"
	"openlinkedin/internal/taxonomy"
)

// Axis weights for the composite score.
const (
	productionWeight = 0.30
	executiveWeight  = 0.35
	keywordWeight    = 0.35
)

// Per-list weights for the executive positioning lists.
const (
	businessOutcomesWeight = 6
	scaleWeight            = 5
	leadershipWeight       = 4
	operationalWeight      = 3
	teamOrgWeight          = 3
)

// Combination bonuses and the theory-only penalty on the production axis.
const (
	productionImplementationBonus = 15
	businessProductionBonus       = 12
	theoryOnlyPenalty             = 10
)

const maxMatchedKeywords = 15

// DefaultMinScoreThreshold is the stock filter cutoff.
const DefaultMinScoreThreshold = 10.0

// Scorer computes multi-axis relevance scores for feed items.
type Scorer struct {
	minScoreThreshold float64
	now               func() time.Time
}

// NewScorer creates a scorer with the given filter threshold.
func NewScorer(minScoreThreshold float64) *Scorer {
	return &Scorer{
		minScoreThreshold: minScoreThreshold,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// MinScoreThreshold is the filter cutoff applied by FilterAndRank.
func (s *Scorer) MinScoreThreshold() float64 {
	return s.minScoreThreshold
}

// Score runs all scoring stages on one item and returns the complete record.
func (s *Scorer) Score(item core.FeedItem) core.ScoreRecord {
	text := strings.ToLower(item.Title + " " + item.Content)

	rec := core.ScoreRecord{
		ProductionScore:   s.productionScore(text),
		ExecutiveScore:    s.executiveScore(text),
		KeywordScore:      s.keywordScore(text),
		ContentType:       ClassifyContentType(text),
		MatchedKeywords:   matchedKeywords(text),
		MatchedCategories: matchedCategories(text),
	}
	rec.TypeMultiplier = TypeMultiplier(rec.ContentType)
	rec.FreshnessMultiplier = s.freshnessMultiplier(item.PublishedAt)

	base := rec.ProductionScore*productionWeight +
		rec.ExecutiveScore*executiveWeight +
		rec.KeywordScore*keywordWeight
	rec.FinalScore = round2(base * rec.TypeMultiplier * rec.FreshnessMultiplier)

	return rec
}

// FilterAndRank scores a batch, drops items below the threshold, and returns
// the survivors sorted descending by final score (stable, so ties keep
// insertion order), truncated to maxResults.
func (s *Scorer) FilterAndRank(items []core.FeedItem, maxResults int) []core.ScoredItem {
	scored := make([]core.ScoredItem, 0, len(items))
	for _, item := range items {
		rec := s.Score(item)
		if rec.FinalScore < s.minScoreThreshold {
			continue
		}
		scored = append(scored, core.ScoredItem{FeedItem: item, ScoreRecord: rec})
	}

	core.SortByFinalScore(scored)
	if maxResults > 0 && len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	return scored
}

// productionScore sums the weighted dictionaries, applies the combination
// bonuses, subtracts the theory-only penalty, and clamps at zero.
func (s *Scorer) productionScore(text string) float64 {
	score := 0.0
	score += sumWeights(text, taxonomy.ProductionKeywords)
	score += sumWeights(text, taxonomy.ResearchKeywords)
	score += sumWeights(text, taxonomy.BusinessKeywords)
	score += sumWeights(text, taxonomy.ImplementationKeywords)
	score += sumWeights(text, taxonomy.FrameworkWeights)

	hasProduction := containsAnyKey(text, taxonomy.ProductionKeywords)
	if hasProduction && containsAnyKey(text, taxonomy.ImplementationKeywords) {
		score += productionImplementationBonus
	}
	if hasProduction && containsAnyKey(text, taxonomy.BusinessKeywords) {
		score += businessProductionBonus
	}
	if containsAny(text, taxonomy.TheoryOnlyIndicators) && !hasProduction {
		score -= theoryOnlyPenalty
	}

	return math.Max(0, score)
}

func (s *Scorer) executiveScore(text string) float64 {
	score := 0.0
	score += float64(countContained(text, taxonomy.ExecutiveBusinessOutcomes) * businessOutcomesWeight)
	score += float64(countContained(text, taxonomy.ExecutiveScaleIndicators) * scaleWeight)
	score += float64(countContained(text, taxonomy.ExecutiveLeadershipSignals) * leadershipWeight)
	score += float64(countContained(text, taxonomy.ExecutiveOperationalExcellence) * operationalWeight)
	score += float64(countContained(text, taxonomy.ExecutiveTeamOrg) * teamOrgWeight)
	return score
}

func (s *Scorer) keywordScore(text string) float64 {
	score := 0.0
	score += float64(countContained(text, taxonomy.HighPriorityKeywords) * 5)
	score += float64(countContained(text, taxonomy.MediumPriorityKeywords) * 3)
	score += float64(countContained(text, taxonomy.LowPriorityKeywords) * 1)
	return score
}

// freshnessMultiplier decays the score for content older than one month.
// Missing or unparseable dates pass through at 1.0.
func (s *Scorer) freshnessMultiplier(publishedAt string) float64 {
	published, ok := ParsePublishedDateAt(publishedAt, s.now())
	if !ok {
		return 1.0
	}
	ageMonths := MonthsSince(published, s.now())
	m := 1.0 - 0.25*math.Max(0, ageMonths-1)
	m = math.Max(0.1, math.Min(1.0, m))
	return round4(m)
}

// matchedKeywords walks the priority lists in their fixed insertion order and
// returns the first 15 keywords present in the text.
func matchedKeywords(text string) []string {
	var matched []string
	for _, list := range [][]string{
		taxonomy.HighPriorityKeywords,
		taxonomy.MediumPriorityKeywords,
		taxonomy.LowPriorityKeywords,
	} {
		for _, kw := range list {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = append(matched, kw)
				if len(matched) >= maxMatchedKeywords {
					return matched
				}
			}
		}
	}
	return matched
}

func matchedCategories(text string) []string {
	var matched []string
	for _, cat := range taxonomy.AllCategories {
		if containsAny(text, cat.Keywords) {
			matched = append(matched, cat.Name)
		}
	}
	return matched
}

func sumWeights(text string, weights map[string]int) float64 {
	total := 0.0
	for kw, w := range weights {
		if strings.Contains(text, strings.ToLower(kw)) {
			total += float64(w)
		}
	}
	return total
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
