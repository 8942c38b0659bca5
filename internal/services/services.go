// Package services wires the application together: store, aggregator,
// reranker, safety monitor, validator, metrics, and the optional LLM and
// publisher collaborators. Both the HTTP facade and the CLI commands operate
// through one Services value.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"openlinkedin/internal/config"
	"openlinkedin/internal/core"
	"openlinkedin/internal/feeds"
	"openlinkedin/internal/llm"
	"openlinkedin/internal/metrics"
	"openlinkedin/internal/publish"
	"openlinkedin/internal/relevance"
	"openlinkedin/internal/rerank"
	"openlinkedin/internal/safety"
	"openlinkedin/internal/store"
	"openlinkedin/internal/validate"
)

// Services holds every long-lived collaborator.
type Services struct {
	Config     *config.Config
	Store      *store.Store
	Aggregator *feeds.Aggregator
	Reranker   *rerank.Reranker
	Safety     *safety.Monitor
	Validator  *validate.Validator
	Publisher  publish.Publisher
	Metrics    *metrics.Metrics
	LLM        llm.Provider // nil when no API key is configured
}

// New builds the service graph from configuration. The LLM provider is
// optional: without an API key generation endpoints are simply unavailable.
func New(ctx context.Context, cfg *config.Config) (*Services, error) {
	st, err := store.Open(cfg.Paths.Database)
	if err != nil {
		return nil, err
	}

	monitor, err := safety.NewMonitor(safety.Config{
		HourlyLimit:        cfg.Safety.HourlyActionLimit,
		DailyLimit:         cfg.Safety.DailyActionLimit,
		WeeklyLimit:        cfg.Safety.WeeklyActionLimit,
		ErrorRateThreshold: cfg.Safety.ErrorRateThreshold,
		ErrorWindowSeconds: cfg.Safety.ErrorWindowSeconds,
		CooldownMinutes:    cfg.Safety.CooldownMinutes,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	m := metrics.New()

	agg := feeds.NewAggregator(feeds.Options{
		Scorer:          relevance.NewScorer(cfg.Aggregation.MinRelevanceScore),
		FetchTimeout:    time.Duration(cfg.Aggregation.FetchTimeoutSeconds) * time.Second,
		MaxItemsPerFeed: cfg.Aggregation.MaxItemsPerFeed,
		CacheTTL:        time.Duration(cfg.Aggregation.CacheTTLMinutes) * time.Minute,
		Metrics:         m,
	})

	reranker := rerank.New(cfg.Paths.Model, rerank.DefaultMinTrainingSamples, m)

	validator := validate.NewValidator()
	validator.MinPostLength = cfg.Validation.MinPostLength
	validator.MaxPostLength = cfg.Validation.MaxPostLength
	validator.MinCommentLength = cfg.Validation.MinCommentLength
	validator.MaxCommentLength = cfg.Validation.MaxCommentLength

	svc := &Services{
		Config:     cfg,
		Store:      st,
		Aggregator: agg,
		Reranker:   reranker,
		Safety:     monitor,
		Validator:  validator,
		Publisher:  publish.Unconfigured{},
		Metrics:    m,
	}

	if cfg.Gemini.APIKey != "" {
		provider, err := llm.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.FastModel)
		if err != nil {
			log.Warn().Err(err).Msg("LLM provider unavailable, generation disabled")
		} else {
			svc.LLM = provider
		}
	}

	return svc, nil
}

// Close releases held resources.
func (s *Services) Close() error {
	return s.Store.Close()
}

// FetchResult summarises one aggregation pass.
type FetchResult struct {
	RunID     string `json:"run_id"`
	Fetched   int    `json:"fetched"`
	Persisted int    `json:"persisted"`
	Saved     int    `json:"saved_to_library"`
}

// FetchAndPersist runs one aggregation pass: fetch and score the configured
// priorities, upsert everything into the store, and auto-save items scoring
// at or above the configured threshold into the content library.
func (s *Services) FetchAndPersist(ctx context.Context, priorities []int, minScore float64, maxResults int) (FetchResult, error) {
	runID := uuid.NewString()
	if len(priorities) == 0 {
		priorities = s.Config.Aggregation.DefaultPriorities
	}

	items := s.Aggregator.FetchAndFilter(ctx, priorities, maxResults)
	if minScore > 0 {
		filtered := items[:0]
		for _, item := range items {
			if item.FinalScore >= minScore {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	persisted, err := s.Store.FeedItems.UpsertBatch(items)
	if err != nil {
		return FetchResult{RunID: runID, Fetched: len(items)}, err
	}
	s.Metrics.ItemsPersisted(persisted)

	saved := 0
	for _, item := range items {
		if item.FinalScore < s.Config.Aggregation.AutoSaveThreshold {
			continue
		}
		n, err := s.autoSave(item)
		if err != nil {
			log.Warn().Err(err).Str("hash", item.Hash).Msg("auto-save failed")
			continue
		}
		saved += n
	}

	log.Info().
		Str("run_id", runID).
		Ints("priorities", priorities).
		Int("fetched", len(items)).
		Int("persisted", persisted).
		Int("saved", saved).
		Msg("aggregation pass complete")
	return FetchResult{RunID: runID, Fetched: len(items), Persisted: persisted, Saved: saved}, nil
}

// autoSave copies a high-scoring item into the content library once, keyed
// by its URL, and flags the stored feed item. Returns 1 when a new doc was
// created.
func (s *Services) autoSave(item core.ScoredItem) (int, error) {
	existing, err := s.Store.Library.BySource(item.URL)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}
	if _, err := s.Store.Library.Add(item.Title, item.Content, item.URL, item.MatchedCategories); err != nil {
		return 0, err
	}
	if row, err := s.Store.FeedItems.GetByHash(item.Hash); err == nil && row != nil {
		if _, err := s.Store.FeedItems.MarkSaved(row.ID); err != nil {
			log.Warn().Err(err).Int64("id", row.ID).Msg("could not flag feed item as saved")
		}
	}
	return 1, nil
}

// Retrain trains the reranker from explicit feedback plus implicit positives
// (feed items whose library copy seeded a published post).
func (s *Services) Retrain() (core.TrainReport, error) {
	rows, err := s.Store.FeedItems.All()
	if err != nil {
		return core.TrainReport{}, err
	}
	implicit, err := s.Store.Feedback.ImplicitPositiveHashes()
	if err != nil {
		return core.TrainReport{}, err
	}
	feedbackMap := make(map[string]string, len(implicit))
	for _, hash := range implicit {
		feedbackMap[hash] = core.FeedbackLiked
	}
	return s.Reranker.Train(rows, feedbackMap), nil
}
