package rerank

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"openlinkedin/internal/core"
	"openlinkedin/internal/metrics"
)

// DefaultMinTrainingSamples is how many labelled items training requires.
const DefaultMinTrainingSamples = 20

// Reranker wraps the boosted model with persistence and a rule-based
// fallback. Rerank never fails loudly: with no model, a broken model file,
// or a prediction problem it returns the rule-based ordering.
type Reranker struct {
	mu                 sync.Mutex
	modelPath          string
	minTrainingSamples int
	model              *Model
	stats              core.TrainReport
	metrics            *metrics.Metrics
}

// New creates a reranker persisting to modelPath, loading any previously
// trained model found there.
func New(modelPath string, minTrainingSamples int, m *metrics.Metrics) *Reranker {
	if minTrainingSamples <= 0 {
		minTrainingSamples = DefaultMinTrainingSamples
	}
	r := &Reranker{
		modelPath:          modelPath,
		minTrainingSamples: minTrainingSamples,
		metrics:            m,
	}
	r.loadModel()
	return r
}

// IsTrained reports whether a model is in memory.
func (r *Reranker) IsTrained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model != nil
}

// Train fits a fresh model from stored feed items. Labels come from the
// row's own feedback when present, otherwise from feedbackMap keyed by item
// hash (which is how implicit positives arrive). Below the sample floor no
// model is produced and the previous one, if any, stays in effect.
func (r *Reranker) Train(rows []core.StoredFeedItem, feedbackMap map[string]string) core.TrainReport {
	var samples []sample
	var labels []int
	for _, row := range rows {
		label := ""
		if row.Feedback != nil {
			label = *row.Feedback
		} else if fb, ok := feedbackMap[row.Hash]; ok {
			label = fb
		}
		if label != core.FeedbackLiked && label != core.FeedbackDisliked {
			continue
		}
		samples = append(samples, extractFeatures(row.ScoredItem))
		if label == core.FeedbackLiked {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}

	if len(labels) < r.minTrainingSamples {
		report := core.TrainReport{
			Status:      core.TrainStatusInsufficient,
			Samples:     len(labels),
			MinRequired: r.minTrainingSamples,
		}
		r.metrics.TrainingRun(report.Status)
		log.Info().Int("samples", len(labels)).Int("min_required", r.minTrainingSamples).
			Msg("reranker training skipped")
		return report
	}

	liked := 0
	for _, y := range labels {
		liked += y
	}

	// Single-class label sets cannot train a classifier; keep whatever model
	// exists and report the data problem.
	if liked == 0 || liked == len(labels) {
		report := core.TrainReport{
			Status:      core.TrainStatusInsufficient,
			Samples:     len(labels),
			MinRequired: r.minTrainingSamples,
		}
		r.metrics.TrainingRun(report.Status)
		log.Warn().Int("liked", liked).Int("total", len(labels)).
			Msg("reranker training needs both classes")
		return report
	}

	// Deterministic 80/20 head/tail split; the model fits on the head. If the
	// head happens to hold a single class, fall back to the full set.
	splitIdx := len(samples) * 8 / 10
	if splitIdx < 1 {
		splitIdx = 1
	}
	headLiked := 0
	for _, y := range labels[:splitIdx] {
		headLiked += y
	}
	if headLiked == 0 || headLiked == splitIdx {
		splitIdx = len(samples)
	}
	model := trainModel(samples[:splitIdx], labels[:splitIdx])

	report := core.TrainReport{
		Status:            core.TrainStatusTrained,
		TotalSamples:      len(labels),
		Liked:             liked,
		Disliked:          len(labels) - liked,
		FeatureImportance: model.Importance,
	}

	r.mu.Lock()
	r.model = model
	r.stats = report
	r.mu.Unlock()

	if err := r.saveModel(model, report); err != nil {
		log.Error().Err(err).Str("path", r.modelPath).Msg("failed to persist reranker model")
	}
	r.metrics.TrainingRun(report.Status)
	log.Info().Int("samples", len(labels)).Int("liked", liked).
		Int("disliked", len(labels)-liked).Msg("reranker trained")
	return report
}

// Rerank orders items by predicted P(liked), overwriting FinalScore with
// the probability scaled to 0-100. Without a trained model the rule-based
// descending order is returned.
func (r *Reranker) Rerank(items []core.ScoredItem) []core.ScoredItem {
	r.mu.Lock()
	model := r.model
	r.mu.Unlock()

	r.metrics.RerankCall()
	if model == nil || len(items) == 0 {
		core.SortByFinalScore(items)
		return items
	}

	for i := range items {
		p := model.PredictProba(extractFeatures(items[i]))
		items[i].FinalScore = round2(p * 100)
	}
	core.SortByFinalScore(items)
	return items
}

// Stats returns the last training report, or a not_trained report noting
// whether a model file exists on disk.
func (r *Reranker) Stats() core.TrainReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stats.Status != "" {
		return r.stats
	}
	_, err := os.Stat(r.modelPath)
	return core.TrainReport{
		Status:      core.TrainStatusNotTrained,
		ModelExists: err == nil,
	}
}

// saveModel writes the model atomically (temp file + rename) with a JSON
// stats sidecar next to it.
func (r *Reranker) saveModel(model *Model, report core.TrainReport) error {
	if dir := filepath.Dir(r.modelPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.modelPath), ".reranker-*")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(model); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), r.modelPath); err != nil {
		return fmt.Errorf("failed to replace model file: %w", err)
	}

	statsJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.modelPath+".stats.json", statsJSON, 0644)
}

func (r *Reranker) loadModel() {
	f, err := os.Open(r.modelPath)
	if err != nil {
		return
	}
	defer f.Close()

	var model Model
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		log.Warn().Err(err).Str("path", r.modelPath).Msg("failed to load reranker model")
		return
	}
	r.model = &model

	statsRaw, err := os.ReadFile(r.modelPath + ".stats.json")
	if err == nil {
		var report core.TrainReport
		if err := json.Unmarshal(statsRaw, &report); err == nil {
			r.stats = report
		}
	}
	log.Info().Str("path", r.modelPath).Msg("loaded reranker model")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
