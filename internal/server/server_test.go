package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"openlinkedin/internal/config"
	"openlinkedin/internal/core"
	"openlinkedin/internal/feeds"
	"openlinkedin/internal/metrics"
	"openlinkedin/internal/publish"
	"openlinkedin/internal/relevance"
	"openlinkedin/internal/rerank"
	"openlinkedin/internal/safety"
	"openlinkedin/internal/services"
	"openlinkedin/internal/store"
	"openlinkedin/internal/validate"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Safety: config.Safety{
			HourlyActionLimit:  8,
			DailyActionLimit:   30,
			WeeklyActionLimit:  150,
			ErrorRateThreshold: 0.3,
			ErrorWindowSeconds: 3600,
			CooldownMinutes:    30,
		},
		Aggregation: config.Aggregation{
			FetchTimeoutSeconds: 5,
			MaxItemsPerFeed:     20,
			CacheTTLMinutes:     30,
			MinRelevanceScore:   0,
			DefaultPriorities:   []int{1, 2},
			AutoSaveThreshold:   35.0,
			MaxAgeMonths:        3,
		},
		Validation: config.Validation{
			MinPostLength:    100,
			MaxPostLength:    3000,
			MinCommentLength: 20,
			MaxCommentLength: 500,
		},
		Paths: config.Paths{
			Database: filepath.Join(dir, "test.db"),
			Model:    filepath.Join(dir, "model.gob"),
		},
		Server: config.Server{Host: "127.0.0.1", Port: 8787},
	}
}

func testServices(t *testing.T, cfg *config.Config, sources []core.FeedSource) *services.Services {
	t.Helper()
	st, err := store.Open(cfg.Paths.Database)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	monitor, err := safety.NewMonitor(safety.Config{
		HourlyLimit:        cfg.Safety.HourlyActionLimit,
		DailyLimit:         cfg.Safety.DailyActionLimit,
		WeeklyLimit:        cfg.Safety.WeeklyActionLimit,
		ErrorRateThreshold: cfg.Safety.ErrorRateThreshold,
		ErrorWindowSeconds: cfg.Safety.ErrorWindowSeconds,
		CooldownMinutes:    cfg.Safety.CooldownMinutes,
	})
	if err != nil {
		t.Fatalf("safety monitor: %v", err)
	}

	validator := validate.NewValidator()
	validator.MinPostLength = cfg.Validation.MinPostLength
	validator.MaxPostLength = cfg.Validation.MaxPostLength
	validator.MinCommentLength = cfg.Validation.MinCommentLength
	validator.MaxCommentLength = cfg.Validation.MaxCommentLength

	return &services.Services{
		Config: cfg,
		Store:  st,
		Aggregator: feeds.NewAggregator(feeds.Options{
			Sources:         sources,
			Scorer:          relevance.NewScorer(0),
			FetchTimeout:    time.Duration(cfg.Aggregation.FetchTimeoutSeconds) * time.Second,
			MaxItemsPerFeed: cfg.Aggregation.MaxItemsPerFeed,
		}),
		Reranker:  rerank.New(cfg.Paths.Model, rerank.DefaultMinTrainingSamples, nil),
		Safety:    monitor,
		Validator: validator,
		Publisher: publish.Unconfigured{},
		Metrics:   metrics.New(),
	}
}

func testServer(t *testing.T) (*Server, *services.Services) {
	cfg := testConfig(t)
	svc := testServices(t, cfg, []core.FeedSource{{Name: "None", Enabled: false}})
	return New(svc), svc
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResp(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

const validPost = "We moved our inference fleet to continuous batching last quarter. " +
	"Latency p99 dropped 40% and GPU utilisation doubled. Here is what we learned about production serving."

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.APIToken = "sekrit"
	svc := testServices(t, cfg, nil)
	srv := New(svc)

	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	authed := httptest.NewRecorder()
	srv.Router().ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", authed.Code)
	}

	// Health and metrics stay open.
	if rec := doJSON(t, srv, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}
}

func TestPostLifecycle(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/posts", map[string]any{"content": validPost})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var post core.Post
	decodeResp(t, rec, &post)
	if post.Status != core.StatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/posts?status=draft", nil)
	var posts []core.Post
	decodeResp(t, rec, &posts)
	if len(posts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(posts))
	}

	path := fmt.Sprintf("/api/posts/%d/status", post.ID)
	rec = doJSON(t, srv, http.MethodPut, path, map[string]string{"status": "approved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d", rec.Code)
	}

	// Publishing without a configured publisher is a client error.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/posts/%d/publish", post.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("publish unconfigured: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/posts/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing post: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, path, map[string]string{"status": "archived"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: status = %d, want 400", rec.Code)
	}
}

func TestCreatePostRejectsInvalidContent(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/posts", map[string]any{"content": "too short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var result validate.Result
	decodeResp(t, rec, &result)
	if result.Valid || len(result.Errors) == 0 {
		t.Errorf("expected validation errors, got %+v", result)
	}
}

// fakePublisher succeeds for every action and remembers what it did.
type fakePublisher struct {
	posts    []string
	comments []string
	postURL  string
	hits     []publish.PostResult
}

func (f *fakePublisher) PublishPost(_ context.Context, content, _ string) (bool, error) {
	f.posts = append(f.posts, content)
	return true, nil
}

func (f *fakePublisher) PublishComment(_ context.Context, postURL, text string) (bool, error) {
	f.comments = append(f.comments, text)
	return true, nil
}

func (f *fakePublisher) LatestPostURL(context.Context) (string, error) {
	return f.postURL, nil
}

func (f *fakePublisher) SearchPosts(context.Context, string, int) ([]publish.PostResult, error) {
	return f.hits, nil
}

func TestPublishPostSuccess(t *testing.T) {
	srv, svc := testServer(t)
	pub := &fakePublisher{postURL: "https://www.linkedin.com/posts/abc123"}
	svc.Publisher = pub

	doc, err := svc.Store.Library.Add("Source doc", "body", "https://example.com/article", nil)
	if err != nil {
		t.Fatalf("add doc: %v", err)
	}
	post, err := svc.Store.Posts.Create(validPost, "", []string{fmt.Sprintf("%d", doc.ID)})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := svc.Store.Posts.UpdateStatus(post.ID, core.StatusApproved, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/posts/%d/publish", post.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK          bool   `json:"ok"`
		LinkedInURL string `json:"linkedin_url"`
	}
	decodeResp(t, rec, &resp)
	if !resp.OK || resp.LinkedInURL != pub.postURL {
		t.Errorf("resp = %+v", resp)
	}

	got, err := svc.Store.Posts.Get(post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != core.StatusPublished || got.LinkedInURL != pub.postURL {
		t.Errorf("post after publish: status=%q url=%q", got.Status, got.LinkedInURL)
	}
	if len(pub.comments) != 1 || !strings.Contains(pub.comments[0], "https://example.com/article") {
		t.Errorf("source-link comment = %v", pub.comments)
	}
	stats := svc.Safety.Stats()
	if stats.HourlyRemaining != 7 {
		t.Errorf("hourly remaining = %d, want 7", stats.HourlyRemaining)
	}
	entries, err := svc.Store.Log.Recent(5)
	if err != nil || len(entries) == 0 {
		t.Fatalf("log entries = %v, err %v", entries, err)
	}
	if entries[0].ActionType != "publish_post" || entries[0].Status != "success" {
		t.Errorf("log head = %+v", entries[0])
	}
}

func TestPublishBlockedBySafety(t *testing.T) {
	srv, svc := testServer(t)
	svc.Publisher = &fakePublisher{}
	svc.Safety.SetClock(func() time.Time { return time.Unix(1700000000, 0).UTC() })
	for i := 0; i < 8; i++ {
		svc.Safety.RecordAction()
	}

	post, _ := svc.Store.Posts.Create(validPost, "", nil)
	svc.Store.Posts.UpdateStatus(post.ID, core.StatusApproved, "")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/posts/%d/publish", post.ID), nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestCommentBatchPublish(t *testing.T) {
	srv, svc := testServer(t)
	pub := &fakePublisher{}
	svc.Publisher = pub

	for i := 0; i < 3; i++ {
		_, err := svc.Store.Comments.Create(core.Comment{
			TargetPostURL: fmt.Sprintf("https://www.linkedin.com/posts/%d", i),
			Content:       "Great breakdown of the latency tradeoffs here.",
		})
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}
	// One without a target URL stays behind.
	if _, err := svc.Store.Comments.Create(core.Comment{Content: "Solid write-up, thanks for sharing it."}); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/comments/approve-all", nil)
	var approveResp struct {
		Count int `json:"count"`
	}
	decodeResp(t, rec, &approveResp)
	if approveResp.Count != 4 {
		t.Fatalf("approved = %d, want 4", approveResp.Count)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/publish-approved", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch publish: status = %d", rec.Code)
	}
	var resp struct {
		Published int `json:"published"`
		Failed    int `json:"failed"`
	}
	decodeResp(t, rec, &resp)
	if resp.Published != 3 || resp.Failed != 0 {
		t.Errorf("published = %d failed = %d, want 3/0", resp.Published, resp.Failed)
	}
	if len(pub.comments) != 3 {
		t.Errorf("publisher saw %d comments, want 3", len(pub.comments))
	}
}

func TestSearchPosts(t *testing.T) {
	srv, svc := testServer(t)

	// Unconfigured publisher is a client error, same as publishing.
	rec := doJSON(t, srv, http.MethodPost, "/api/comments/search", map[string]any{"query": "vLLM"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfigured: status = %d, want 400", rec.Code)
	}

	svc.Publisher = &fakePublisher{hits: []publish.PostResult{
		{URL: "https://www.linkedin.com/posts/1", Author: "Ana", Content: "Serving notes"},
		{URL: "https://www.linkedin.com/posts/2", Author: "Ben", Content: ""},
		{URL: "https://www.linkedin.com/posts/1", Author: "Ana", Content: "Serving notes"},
		{URL: "https://www.linkedin.com/posts/3", Author: "Cam", Content: "Quantization wins"},
	}}

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/search-feedback", map[string]string{
		"query": "vLLM", "post_url": "https://www.linkedin.com/posts/3",
		"post_author": "Cam", "label": "disliked",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("search feedback: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/search", map[string]any{"query": "vLLM"})
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status = %d", rec.Code)
	}
	var results []struct {
		URL      string `json:"url"`
		Feedback string `json:"feedback"`
	}
	decodeResp(t, rec, &results)
	// Empty content and duplicate URLs are dropped.
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].URL != "https://www.linkedin.com/posts/1" || results[0].Feedback != "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Feedback != "disliked" {
		t.Errorf("results[1].feedback = %q, want disliked", results[1].Feedback)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/search", map[string]any{"query": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/comments/search-feedback", map[string]string{
		"post_url": "https://www.linkedin.com/posts/1", "label": "meh",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad label: status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/comments/search-feedback", map[string]string{
		"label": "liked",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing post_url: status = %d, want 400", rec.Code)
	}
}

func TestLibraryToQueue(t *testing.T) {
	srv, svc := testServer(t)

	doc, err := svc.Store.Library.Add("Title", "Body", "https://example.com", []string{"infra"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/library/%d/to-queue", doc.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("to-queue without generated post: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/library/%d/generated", doc.ID),
		map[string]string{"title": "Draft title", "post": validPost})
	if rec.Code != http.StatusOK {
		t.Fatalf("set generated: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/library/%d/to-queue", doc.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("to-queue: status = %d", rec.Code)
	}
	var resp struct {
		PostID int64 `json:"post_id"`
	}
	decodeResp(t, rec, &resp)
	post, err := svc.Store.Posts.Get(resp.PostID)
	if err != nil || post == nil {
		t.Fatalf("queued post missing: %v", err)
	}
	if post.Content != validPost {
		t.Errorf("queued content = %q", post.Content)
	}
	if len(post.RAGSources) != 1 || post.RAGSources[0] != fmt.Sprintf("%d", doc.ID) {
		t.Errorf("rag sources = %v", post.RAGSources)
	}
}

func TestFeedFeedbackEndpoint(t *testing.T) {
	srv, svc := testServer(t)

	item := core.ScoredItem{
		FeedItem: core.FeedItem{
			Hash: "feedhash00000001", Title: "Serving LLMs", URL: "https://example.com/a",
			SourceName: "Test",
		},
		ScoreRecord: core.ScoreRecord{FinalScore: 42, ContentType: core.ContentTypeCaseStudy},
	}
	if err := svc.Store.FeedItems.Upsert(item); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	stored, err := svc.Store.FeedItems.GetByHash(item.Hash)
	if err != nil || stored == nil {
		t.Fatalf("get by hash: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/feed/%d/feedback", stored.ID),
		map[string]string{"feedback": "meh"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad label: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/feed/9999/feedback",
		map[string]string{"feedback": "liked"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/feed/%d/feedback", stored.ID),
		map[string]string{"feedback": "liked"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set feedback: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/feed?min_score=0", nil)
	var items []core.StoredFeedItem
	decodeResp(t, rec, &items)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Feedback == nil || *items[0].Feedback != "liked" {
		t.Errorf("feedback = %v, want liked", items[0].Feedback)
	}
}

func TestFetchEndpoint(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>Deploying LLM inference at scale in production</title>
<link>https://example.com/llm-prod</link>
<description>Kubernetes GPU serving with vLLM, latency and cost optimization lessons.</description></item>
</channel></rss>`
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer feed.Close()

	cfg := testConfig(t)
	cfg.Aggregation.AutoSaveThreshold = 1.0
	svc := testServices(t, cfg, []core.FeedSource{{
		Name: "Test Feed", URL: feed.URL, Kind: core.SourceKindRSS,
		Priority: 1, Category: "testing", Enabled: true,
	}})
	srv := New(svc)

	rec := doJSON(t, srv, http.MethodPost, "/api/feed/fetch?min_score=0&priorities=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp services.FetchResult
	decodeResp(t, rec, &resp)
	if resp.RunID == "" {
		t.Errorf("run_id empty")
	}
	if resp.Fetched != 1 || resp.Persisted != 1 {
		t.Errorf("fetched = %d persisted = %d, want 1/1", resp.Fetched, resp.Persisted)
	}
	if resp.Saved != 1 {
		t.Errorf("saved = %d, want 1 (auto-save threshold lowered)", resp.Saved)
	}
	if n, err := svc.Store.Library.Count(); err != nil || n != 1 {
		t.Errorf("library count = %d (err %v), want 1", n, err)
	}
	item, err := svc.Store.FeedItems.GetByHash(core.ItemHash(
		"Deploying LLM inference at scale in production", "https://example.com/llm-prod"))
	if err != nil || item == nil {
		t.Fatalf("stored item missing: %v", err)
	}
	if !item.SavedToLibrary {
		t.Errorf("item not flagged as saved to library")
	}

	// A second fetch must not duplicate the library doc.
	rec = doJSON(t, srv, http.MethodPost, "/api/feed/fetch?min_score=0&priorities=1", nil)
	decodeResp(t, rec, &resp)
	if resp.Saved != 0 {
		t.Errorf("second run saved = %d, want 0", resp.Saved)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/feed/fetch?priorities=one,two", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad priorities: status = %d, want 400", rec.Code)
	}
}

func TestStatsAndSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.LinkedIn.Email = "lena@example.com"
	svc := testServices(t, cfg, nil)
	srv := New(svc)

	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", rec.Code)
	}
	var stats map[string]any
	decodeResp(t, rec, &stats)
	if stats["total_posts"].(float64) != 0 {
		t.Errorf("total_posts = %v, want 0", stats["total_posts"])
	}
	if _, ok := stats["safety"]; !ok {
		t.Errorf("stats missing safety block")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	var settings struct {
		LinkedIn struct {
			Email string `json:"email"`
		} `json:"linkedin"`
	}
	decodeResp(t, rec, &settings)
	if settings.LinkedIn.Email != "l***@example.com" {
		t.Errorf("masked email = %q, want l***@example.com", settings.LinkedIn.Email)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"lena@example.com", "l***@example.com"},
		{"a@b.co", "a***@b.co"},
		{"nodomain", "***"},
		{"@example.com", "***@example.com"},
	}
	for _, tt := range tests {
		if got := maskEmail(tt.in); got != tt.want {
			t.Errorf("maskEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogsEndpointEmpty(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}
