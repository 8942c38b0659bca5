package rerank

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"openlinkedin/internal/core"
)

// trainingRow builds a stored item whose production score and final score
// separate liked from disliked content.
func trainingRow(i int, liked bool) core.StoredFeedItem {
	label := core.FeedbackDisliked
	production := 5.0
	final := 8.0
	contentType := core.ContentTypePureResearch
	if liked {
		label = core.FeedbackLiked
		production = 80.0
		final = 60.0
		contentType = core.ContentTypeCaseStudy
	}
	return core.StoredFeedItem{
		ID: int64(i),
		ScoredItem: core.ScoredItem{
			FeedItem: core.FeedItem{
				Hash:       fmt.Sprintf("hash%04d", i),
				Title:      fmt.Sprintf("article number %d with a medium title", i),
				Content:    "body text of reasonable length for testing purposes",
				URL:        fmt.Sprintf("https://example.com/%d", i),
				SourceName: "Test Source",
			},
			ScoreRecord: core.ScoreRecord{
				ProductionScore:     production,
				ExecutiveScore:      production / 2,
				KeywordScore:        production / 4,
				ContentType:         contentType,
				TypeMultiplier:      1.0,
				FreshnessMultiplier: 1.0,
				FinalScore:          final,
				MatchedKeywords:     []string{"inference"},
			},
		},
		Feedback: &label,
	}
}

func separableRows(n int) []core.StoredFeedItem {
	rows := make([]core.StoredFeedItem, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, trainingRow(i, i%2 == 0))
	}
	return rows
}

func TestColdStartFallsBackToRuleOrder(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.gob"), 20, nil)

	if r.IsTrained() {
		t.Fatalf("fresh reranker reports trained")
	}

	report := r.Train(separableRows(5), nil)
	if report.Status != core.TrainStatusInsufficient {
		t.Errorf("status = %q, want insufficient_data", report.Status)
	}
	if report.Samples != 5 || report.MinRequired != 20 {
		t.Errorf("report = %+v", report)
	}

	items := []core.ScoredItem{
		{FeedItem: core.FeedItem{Title: "low"}, ScoreRecord: core.ScoreRecord{FinalScore: 10}},
		{FeedItem: core.FeedItem{Title: "high"}, ScoreRecord: core.ScoreRecord{FinalScore: 90}},
		{FeedItem: core.FeedItem{Title: "mid"}, ScoreRecord: core.ScoreRecord{FinalScore: 50}},
	}
	ranked := r.Rerank(items)
	if ranked[0].Title != "high" || ranked[2].Title != "low" {
		t.Errorf("fallback order wrong: %v %v %v", ranked[0].Title, ranked[1].Title, ranked[2].Title)
	}
}

func TestTrainOnSeparableData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	r := New(path, 20, nil)

	report := r.Train(separableRows(40), nil)
	if report.Status != core.TrainStatusTrained {
		t.Fatalf("status = %q, want trained", report.Status)
	}
	if report.TotalSamples != 40 || report.Liked != 20 || report.Disliked != 20 {
		t.Errorf("report = %+v", report)
	}
	if len(report.FeatureImportance) == 0 {
		t.Errorf("no feature importance reported")
	}
	if !r.IsTrained() {
		t.Errorf("reranker not marked trained")
	}

	// The model must prefer the liked profile over the disliked one.
	likedItem := trainingRow(1000, true).ScoredItem
	dislikedItem := trainingRow(1001, false).ScoredItem
	ranked := r.Rerank([]core.ScoredItem{dislikedItem, likedItem})
	if ranked[0].Hash != likedItem.Hash {
		t.Errorf("liked-profile item not ranked first")
	}
	if ranked[0].FinalScore <= ranked[1].FinalScore {
		t.Errorf("scores not descending: %v then %v", ranked[0].FinalScore, ranked[1].FinalScore)
	}
	for _, item := range ranked {
		if item.FinalScore < 0 || item.FinalScore > 100 {
			t.Errorf("score %v outside [0,100]", item.FinalScore)
		}
	}

	// Model file and stats sidecar persisted.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("model file missing: %v", err)
	}
	if _, err := os.Stat(path + ".stats.json"); err != nil {
		t.Errorf("stats sidecar missing: %v", err)
	}
}

func TestRerankIsAPermutation(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.gob"), 20, nil)
	r.Train(separableRows(40), nil)

	items := make([]core.ScoredItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, trainingRow(i+500, i%3 == 0).ScoredItem)
	}
	hashes := map[string]bool{}
	for _, item := range items {
		hashes[item.Hash] = true
	}

	ranked := r.Rerank(items)
	if len(ranked) != 10 {
		t.Fatalf("reranked %d items, want 10", len(ranked))
	}
	for _, item := range ranked {
		if !hashes[item.Hash] {
			t.Errorf("unexpected item %s", item.Hash)
		}
		delete(hashes, item.Hash)
	}
	if len(hashes) != 0 {
		t.Errorf("items missing after rerank: %v", hashes)
	}
}

func TestModelPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	first := New(path, 20, nil)
	if report := first.Train(separableRows(40), nil); report.Status != core.TrainStatusTrained {
		t.Fatalf("train: %+v", report)
	}
	likedItem := trainingRow(2000, true).ScoredItem
	dislikedItem := trainingRow(2001, false).ScoredItem
	want := first.Rerank([]core.ScoredItem{dislikedItem, likedItem})[0].Hash

	second := New(path, 20, nil)
	if !second.IsTrained() {
		t.Fatalf("reloaded reranker not trained")
	}
	stats := second.Stats()
	if stats.Status != core.TrainStatusTrained || stats.TotalSamples != 40 {
		t.Errorf("reloaded stats = %+v", stats)
	}
	got := second.Rerank([]core.ScoredItem{dislikedItem, likedItem})[0].Hash
	if got != want {
		t.Errorf("reloaded model ranks %s first, original ranked %s", got, want)
	}
}

func TestTrainUsesFeedbackMapForImplicitPositives(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.gob"), 20, nil)

	rows := separableRows(30)
	feedbackMap := map[string]string{}
	// Strip explicit labels from ten rows and resupply them via the map, the
	// path implicit positives take.
	for i := 0; i < 10; i++ {
		label := *rows[i].Feedback
		rows[i].Feedback = nil
		feedbackMap[rows[i].Hash] = label
	}

	report := r.Train(rows, feedbackMap)
	if report.Status != core.TrainStatusTrained {
		t.Fatalf("status = %q, want trained", report.Status)
	}
	if report.TotalSamples != 30 {
		t.Errorf("total samples = %d, want 30", report.TotalSamples)
	}
}

func TestTrainSingleClassRefuses(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.gob"), 20, nil)

	rows := make([]core.StoredFeedItem, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, trainingRow(i, true))
	}
	report := r.Train(rows, nil)
	if report.Status != core.TrainStatusInsufficient {
		t.Errorf("status = %q, want insufficient_data for single-class labels", report.Status)
	}
	if r.IsTrained() {
		t.Errorf("model trained on single-class data")
	}
}

func TestStatsNotTrained(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.gob"), 20, nil)
	stats := r.Stats()
	if stats.Status != core.TrainStatusNotTrained {
		t.Errorf("status = %q, want not_trained", stats.Status)
	}
	if stats.ModelExists {
		t.Errorf("model_exists = true with no file on disk")
	}
}

func TestTrainingIsDeterministic(t *testing.T) {
	rows := separableRows(40)

	a := New(filepath.Join(t.TempDir(), "a.gob"), 20, nil)
	b := New(filepath.Join(t.TempDir(), "b.gob"), 20, nil)
	a.Train(rows, nil)
	b.Train(rows, nil)

	items := make([]core.ScoredItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, trainingRow(i+3000, i%2 == 0).ScoredItem)
	}
	itemsA := make([]core.ScoredItem, len(items))
	itemsB := make([]core.ScoredItem, len(items))
	copy(itemsA, items)
	copy(itemsB, items)

	rankedA := a.Rerank(itemsA)
	rankedB := b.Rerank(itemsB)
	for i := range rankedA {
		if rankedA[i].Hash != rankedB[i].Hash || rankedA[i].FinalScore != rankedB[i].FinalScore {
			t.Fatalf("nondeterministic training: position %d differs (%s/%v vs %s/%v)",
				i, rankedA[i].Hash, rankedA[i].FinalScore, rankedB[i].Hash, rankedB[i].FinalScore)
		}
	}
}
