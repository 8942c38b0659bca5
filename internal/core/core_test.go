package core

import "testing"

func TestItemHash(t *testing.T) {
	h := ItemHash("Deploying LLMs", "https://example.com/llms")
	if len(h) != 16 {
		t.Fatalf("hash length = %d, want 16", len(h))
	}
	if h != ItemHash("Deploying LLMs", "https://example.com/llms") {
		t.Errorf("hash is not deterministic")
	}
	if h == ItemHash("Deploying LLMs", "https://example.com/other") {
		t.Errorf("different URLs should hash differently")
	}
	if h == ItemHash("deploying llms", "https://example.com/llms") {
		t.Errorf("hash should be case sensitive")
	}
}

func TestSortByFinalScoreStable(t *testing.T) {
	items := []ScoredItem{
		{FeedItem: FeedItem{Title: "low"}, ScoreRecord: ScoreRecord{FinalScore: 10}},
		{FeedItem: FeedItem{Title: "tie-a"}, ScoreRecord: ScoreRecord{FinalScore: 50}},
		{FeedItem: FeedItem{Title: "tie-b"}, ScoreRecord: ScoreRecord{FinalScore: 50}},
		{FeedItem: FeedItem{Title: "high"}, ScoreRecord: ScoreRecord{FinalScore: 90}},
	}
	SortByFinalScore(items)

	want := []string{"high", "tie-a", "tie-b", "low"}
	for i, title := range want {
		if items[i].Title != title {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Title, title)
		}
	}
}
