package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"openlinkedin/internal/core"
	"openlinkedin/internal/relevance"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Deploying LLMs in &lt;b&gt;production&lt;/b&gt;</title>
      <link>https://example.com/llms</link>
      <description>&lt;p&gt;How we serve   models&lt;/p&gt; at scale</description>
      <pubDate>Tue, 15 Oct 2024 12:00:00 +0000</pubDate>
      <dc:creator>Jane Doe</dc:creator>
    </item>
    <item>
      <title></title>
      <link>https://example.com/skipped</link>
    </item>
    <item>
      <title>Second article</title>
      <link>https://example.com/second</link>
      <description>plain text</description>
    </item>
  </channel>
</rss>`

const sampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>New model release</title>
    <link rel="self" href="https://example.com/self"/>
    <link rel="alternate" href="https://example.com/release"/>
    <summary>Weights are on the hub</summary>
    <updated>2024-10-15T12:00:00Z</updated>
    <author><name>Lab Team</name></author>
  </entry>
</feed>`

const samplePapers = `[
  {
    "paper": {
      "id": "2410.12345",
      "title": "Efficient Inference for Large Models",
      "summary": "We present a serving technique.",
      "authors": [{"name": "A. One"}, {"name": "B. Two"}, "C. Three", {"name": "D. Four"}]
    },
    "publishedAt": "2024-10-15T00:00:00Z"
  },
  {
    "id": "2410.99999",
    "title": "Flat Paper Without Nesting",
    "summary": "Schema drift happens.",
    "authors": ["Solo Author"]
  }
]`

func testSource(name, url string, kind core.SourceKind) core.FeedSource {
	return core.FeedSource{Name: name, URL: url, Kind: kind, Priority: 1, Category: "Test", Enabled: true}
}

func TestParseRSS(t *testing.T) {
	src := testSource("rss", "http://x", core.SourceKindRSS)
	items, err := parseFeed([]byte(sampleRSS), src)
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (titleless entry skipped)", len(items))
	}

	first := items[0]
	if first.Title != "Deploying LLMs in production" {
		t.Errorf("title = %q, want HTML stripped", first.Title)
	}
	if first.Content != "How we serve models at scale" {
		t.Errorf("content = %q, want stripped and whitespace collapsed", first.Content)
	}
	if first.Author != "Jane Doe" {
		t.Errorf("author = %q, want dc:creator fallback", first.Author)
	}
	if first.PublishedAt != "Tue, 15 Oct 2024 12:00:00 +0000" {
		t.Errorf("published_at = %q", first.PublishedAt)
	}
	if first.Hash != core.ItemHash(first.Title, first.URL) {
		t.Errorf("hash not derived from title+url")
	}
	if first.SourceName != "rss" || first.SourceCategory != "Test" {
		t.Errorf("source fields = %q/%q", first.SourceName, first.SourceCategory)
	}
}

func TestParseAtom(t *testing.T) {
	src := testSource("atom", "http://x", core.SourceKindAtom)
	items, err := parseFeed([]byte(sampleAtom), src)
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if item.URL != "https://example.com/release" {
		t.Errorf("url = %q, want the alternate link", item.URL)
	}
	if item.Author != "Lab Team" {
		t.Errorf("author = %q", item.Author)
	}
	if item.PublishedAt != "2024-10-15T12:00:00Z" {
		t.Errorf("published_at = %q, want updated fallback", item.PublishedAt)
	}
}

func TestParseFeedGarbage(t *testing.T) {
	src := testSource("bad", "http://x", core.SourceKindRSS)
	if _, err := parseFeed([]byte("this is not xml"), src); err == nil {
		t.Errorf("expected error for non-XML payload")
	}
}

func TestParseDailyPapers(t *testing.T) {
	src := testSource("Hugging Face Daily Papers", "http://x", core.SourceKindDailyPapers)
	items, err := parseDailyPapers([]byte(samplePapers), src, 20)
	if err != nil {
		t.Fatalf("parseDailyPapers: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	first := items[0]
	if first.URL != "https://huggingface.co/papers/2410.12345" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Author != "A. One, B. Two, C. Three" {
		t.Errorf("author = %q, want first three joined", first.Author)
	}
	if first.PublishedAt != "2024-10-15T00:00:00Z" {
		t.Errorf("published_at = %q", first.PublishedAt)
	}
	if items[1].Title != "Flat Paper Without Nesting" {
		t.Errorf("flat-schema title = %q", items[1].Title)
	}

	wrapped := fmt.Sprintf(`{"results": %s}`, samplePapers)
	items, err = parseDailyPapers([]byte(wrapped), src, 1)
	if err != nil {
		t.Fatalf("wrapped payload: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1 after max truncation", len(items))
	}
}

func TestFetchAllAbsorbsFailures(t *testing.T) {
	var goodHits atomic.Int64
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits.Add(1)
		fmt.Fprint(w, sampleRSS)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	agg := NewAggregator(Options{
		Sources: []core.FeedSource{
			testSource("good", good.URL, core.SourceKindRSS),
			testSource("bad", bad.URL, core.SourceKindRSS),
			{Name: "disabled", URL: bad.URL, Kind: core.SourceKindRSS, Priority: 1, Category: "Test", Enabled: false},
		},
	})

	items := agg.FetchAll(context.Background(), nil)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 from the healthy source", len(items))
	}
	if goodHits.Load() != 1 {
		t.Errorf("good source fetched %d times, want 1", goodHits.Load())
	}
}

func TestFetchFeedUsesCache(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	src := testSource("cached", server.URL, core.SourceKindRSS)
	agg := NewAggregator(Options{Sources: []core.FeedSource{src}})

	for i := 0; i < 3; i++ {
		if _, err := agg.FetchFeed(context.Background(), src); err != nil {
			t.Fatalf("FetchFeed round %d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 within the TTL", hits.Load())
	}

	// Expire the cache and fetch again.
	agg.now = func() time.Time { return time.Now().Add(DefaultCacheTTL + time.Minute) }
	if _, err := agg.FetchFeed(context.Background(), src); err != nil {
		t.Fatalf("FetchFeed after expiry: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2 after TTL expiry", hits.Load())
	}
}

func TestFetchAllDeduplicatesAcrossSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	// Two sources serving identical items: same title+url means same hash.
	agg := NewAggregator(Options{
		Sources: []core.FeedSource{
			testSource("one", server.URL+"/a", core.SourceKindRSS),
			testSource("two", server.URL+"/b", core.SourceKindRSS),
		},
	})
	items := agg.FetchAll(context.Background(), nil)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2 after cross-source dedup", len(items))
	}
}

func TestMaxItemsPerFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<rss version="2.0"><channel>`)
		for i := 0; i < 30; i++ {
			fmt.Fprintf(w, `<item><title>item %d</title><link>https://example.com/%d</link></item>`, i, i)
		}
		fmt.Fprint(w, `</channel></rss>`)
	}))
	defer server.Close()

	src := testSource("big", server.URL, core.SourceKindRSS)
	agg := NewAggregator(Options{Sources: []core.FeedSource{src}, MaxItemsPerFeed: 5})
	items, err := agg.FetchFeed(context.Background(), src)
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("items = %d, want 5", len(items))
	}
}

func TestFetchAndFilterRanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<rss version="2.0"><channel>
			<item><title>Weekend gardening tips</title><link>https://example.com/garden</link>
				<description>tomatoes and roses</description></item>
			<item><title>How we scaled model deployment to production</title><link>https://example.com/prod</link>
				<description>production MLOps inference optimization latency GPU</description></item>
		</channel></rss>`)
	}))
	defer server.Close()

	agg := NewAggregator(Options{
		Sources: []core.FeedSource{testSource("mixed", server.URL, core.SourceKindRSS)},
		Scorer:  relevance.NewScorer(0),
	})
	scored := agg.FetchAndFilter(context.Background(), nil, 10)
	if len(scored) == 0 {
		t.Fatalf("no scored items")
	}
	if scored[0].Title != "How we scaled model deployment to production" {
		t.Errorf("top item = %q, want the production article", scored[0].Title)
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].FinalScore > scored[i-1].FinalScore {
			t.Errorf("ranking not descending at %d", i)
		}
	}
}

func TestPriorityFilter(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	tier1 := testSource("tier1", server.URL+"/1", core.SourceKindRSS)
	tier4 := testSource("tier4", server.URL+"/4", core.SourceKindRSS)
	tier4.Priority = 4

	agg := NewAggregator(Options{Sources: []core.FeedSource{tier1, tier4}})
	agg.FetchAll(context.Background(), []int{1})
	if hits.Load() != 1 {
		t.Errorf("fetched %d sources, want only the tier-1 source", hits.Load())
	}
}

func TestDefaultSourcesRegistry(t *testing.T) {
	sources := DefaultSources()
	if len(sources) < 25 {
		t.Errorf("registry has %d sources, want the full set", len(sources))
	}
	stats := statsFor(sources, 0, 0, 0)
	if stats.Enabled != stats.Total {
		t.Errorf("enabled = %d of %d, want all enabled by default", stats.Enabled, stats.Total)
	}
	if stats.ByPriority["priority_1"] == 0 || stats.ByPriority["priority_4"] == 0 {
		t.Errorf("priority tiers missing: %v", stats.ByPriority)
	}
	seen := map[string]bool{}
	for _, src := range sources {
		if seen[src.Name] {
			t.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		if src.URL == "" || src.Category == "" {
			t.Errorf("incomplete source %+v", src)
		}
	}
}
