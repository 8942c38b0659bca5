package feeds

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"openlinkedin/internal/core"
	"openlinkedin/internal/metrics"
	"openlinkedin/internal/relevance"
)

// Defaults for the aggregator knobs.
const (
	DefaultFetchTimeout    = 15 * time.Second
	DefaultMaxItemsPerFeed = 20
	DefaultCacheTTL        = 30 * time.Minute
)

// Options configures an Aggregator. Zero values fall back to the defaults
// above; a nil Sources slice means the built-in registry.
type Options struct {
	Sources         []core.FeedSource
	Scorer          *relevance.Scorer
	FetchTimeout    time.Duration
	MaxItemsPerFeed int
	CacheTTL        time.Duration
	Metrics         *metrics.Metrics
}

// Aggregator fetches all configured sources, normalises their items, and
// optionally pushes them through the relevance scorer. Sources are fetched
// sequentially in registry order so repeated runs over the same inputs
// produce the same item order.
type Aggregator struct {
	sources         []core.FeedSource
	scorer          *relevance.Scorer
	fetcher         *fetcher
	cache           *feedCache
	maxItemsPerFeed int
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewAggregator builds an aggregator from the given options.
func NewAggregator(opts Options) *Aggregator {
	if opts.Sources == nil {
		opts.Sources = DefaultSources()
	}
	if opts.Scorer == nil {
		opts.Scorer = relevance.NewScorer(relevance.DefaultMinScoreThreshold)
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MaxItemsPerFeed <= 0 {
		opts.MaxItemsPerFeed = DefaultMaxItemsPerFeed
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Aggregator{
		sources:         opts.Sources,
		scorer:          opts.Scorer,
		fetcher:         newFetcher(opts.FetchTimeout),
		cache:           newFeedCache(opts.CacheTTL),
		maxItemsPerFeed: opts.MaxItemsPerFeed,
		metrics:         opts.Metrics,
		now:             time.Now,
	}
}

// Sources returns the full registry, enabled or not.
func (a *Aggregator) Sources() []core.FeedSource {
	return a.sources
}

// EnabledSources returns the sources that participate in fetches.
func (a *Aggregator) EnabledSources() []core.FeedSource {
	var enabled []core.FeedSource
	for _, src := range a.sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// FetchFeed fetches and parses a single source, serving from cache when the
// entry is still fresh.
func (a *Aggregator) FetchFeed(ctx context.Context, source core.FeedSource) ([]core.FeedItem, error) {
	now := a.now()
	if items, ok := a.cache.get(source.URL, now); ok {
		log.Debug().Str("source", source.Name).Int("items", len(items)).Msg("feed cache hit")
		a.metrics.CacheHit()
		return items, nil
	}
	a.metrics.CacheMiss()

	log.Info().Str("source", source.Name).Msg("fetching feed")
	a.metrics.FeedFetch(source.Name)

	raw, err := a.fetcher.fetch(ctx, source.Name, source.URL)
	if err != nil {
		a.metrics.FeedFetchFailed(source.Name)
		return nil, err
	}

	var items []core.FeedItem
	if source.Kind == core.SourceKindDailyPapers {
		items, err = parseDailyPapers(raw, source, a.maxItemsPerFeed)
	} else {
		items, err = parseFeed(raw, source)
	}
	if err != nil {
		a.metrics.FeedFetchFailed(source.Name)
		return nil, err
	}

	if len(items) > a.maxItemsPerFeed {
		items = items[:a.maxItemsPerFeed]
	}
	a.cache.put(source.URL, items, now)
	a.metrics.ItemsIngested(len(items))
	log.Info().Str("source", source.Name).Int("items", len(items)).Msg("fetched feed")
	return items, nil
}

// FetchAll fetches every enabled source (optionally restricted to the given
// priority tiers) and returns the combined items, deduplicated by content
// hash within the batch. Per-source failures are logged and absorbed; one
// dead feed never sinks a fetch cycle.
func (a *Aggregator) FetchAll(ctx context.Context, priorities []int) []core.FeedItem {
	sources := a.EnabledSources()
	if len(priorities) > 0 {
		wanted := map[int]bool{}
		for _, p := range priorities {
			wanted[p] = true
		}
		var filtered []core.FeedSource
		for _, src := range sources {
			if wanted[src.Priority] {
				filtered = append(filtered, src)
			}
		}
		sources = filtered
	}

	seen := map[string]bool{}
	var all []core.FeedItem
	for _, source := range sources {
		items, err := a.FetchFeed(ctx, source)
		if err != nil {
			log.Error().Err(err).Str("source", source.Name).Msg("feed fetch failed")
			continue
		}
		for _, item := range items {
			if seen[item.Hash] {
				continue
			}
			seen[item.Hash] = true
			all = append(all, item)
		}
	}

	log.Info().Int("items", len(all)).Int("sources", len(sources)).Msg("fetch cycle complete")
	return all
}

// FetchAndFilter fetches, scores, thresholds, and ranks content from the
// enabled sources.
func (a *Aggregator) FetchAndFilter(ctx context.Context, priorities []int, maxResults int) []core.ScoredItem {
	raw := a.FetchAll(ctx, priorities)
	scored := a.scorer.FilterAndRank(raw, maxResults)
	log.Info().
		Int("kept", len(scored)).
		Int("raw", len(raw)).
		Float64("threshold", a.scorer.MinScoreThreshold()).
		Msg("filtered fetch cycle")
	return scored
}

// Stats describes the configured registry and cache occupancy.
func (a *Aggregator) Stats() SourceStats {
	hits, misses := a.cache.stats()
	return statsFor(a.sources, a.cache.len(), hits, misses)
}
