package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"openlinkedin/internal/core"
	"openlinkedin/internal/store"
)

func (s *Server) handleListFeed(w http.ResponseWriter, r *http.Request) {
	minScore := queryFloat(r, "min_score", 0)
	limit := queryInt(r, "limit", 100, 1, 500)
	source := r.URL.Query().Get("source")

	var (
		items []core.StoredFeedItem
		err   error
	)
	if source != "" {
		items, err = s.svc.Store.FeedItems.BySource(source, limit)
	} else {
		items, err = s.svc.Store.FeedItems.TopScored(minScore, limit)
	}
	if err != nil {
		writeInternal(w, err)
		return
	}
	if items == nil {
		items = []core.StoredFeedItem{}
	}

	if r.URL.Query().Get("rerank") == "true" && s.svc.Reranker.IsTrained() {
		items = s.rerankStored(items)
	}
	writeJSON(w, http.StatusOK, items)
}

// rerankStored reorders stored rows by the personalised model, carrying the
// model's score back onto each row.
func (s *Server) rerankStored(items []core.StoredFeedItem) []core.StoredFeedItem {
	scored := make([]core.ScoredItem, len(items))
	byHash := make(map[string]core.StoredFeedItem, len(items))
	for i, item := range items {
		scored[i] = item.ScoredItem
		byHash[item.Hash] = item
	}
	reranked := s.svc.Reranker.Rerank(scored)
	out := make([]core.StoredFeedItem, 0, len(reranked))
	for _, item := range reranked {
		row := byHash[item.Hash]
		row.ScoredItem = item
		out = append(out, row)
	}
	return out
}

func (s *Server) handleFeedSources(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.Store.FeedItems.CountBySource()
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registry":      s.svc.Aggregator.Stats(),
		"stored_counts": counts,
	})
}

func (s *Server) handleFetchFeeds(w http.ResponseWriter, r *http.Request) {
	minScore := queryFloat(r, "min_score", 10.0)
	maxResults := queryInt(r, "max_results", 100, 1, 1000)

	var priorities []int
	if raw := r.URL.Query().Get("priorities"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "priorities must be comma-separated integers (e.g. '1,2')")
				return
			}
			priorities = append(priorities, p)
		}
	}

	result, err := s.svc.FetchAndPersist(r.Context(), priorities, minScore, maxResults)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeedFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	found, err := s.svc.Store.Feedback.Set(id, body.Feedback)
	if err != nil {
		if errors.Is(err, store.ErrInvalidLabel) {
			writeError(w, http.StatusBadRequest, "feedback must be 'liked' or 'disliked'")
			return
		}
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "feed item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSaveFeedItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		SourceName  string `json:"source_name"`
		ContentType string `json:"content_type"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	source := body.URL
	if source == "" {
		source = body.SourceName
	}
	var tags []string
	if body.ContentType != "" {
		tags = append(tags, body.ContentType)
	}
	if body.SourceName != "" {
		tags = append(tags, body.SourceName)
	}
	doc, err := s.svc.Store.Library.Add(body.Title, body.Content, source, tags)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": doc.ID})
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Retrain()
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
