package server

import (
	"errors"
	"net/http"

	"openlinkedin/internal/publish"
	"openlinkedin/internal/store"
)

// searchResult is a search hit annotated with any stored thumbs rating so
// previously disliked authors and posts are visible when picking comment
// targets.
type searchResult struct {
	publish.PostResult
	Feedback string `json:"feedback,omitempty"`
}

func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := body.Limit
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	hits, err := s.svc.Publisher.SearchPosts(r.Context(), body.Query, limit)
	if err != nil {
		if errors.Is(err, publish.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, "publisher not configured")
			return
		}
		s.recordActionError("search_posts", body.Query, err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	labels, err := s.svc.Store.SearchFeedback.Map()
	if err != nil {
		writeInternal(w, err)
		return
	}

	results := []searchResult{}
	seen := map[string]bool{}
	for _, hit := range hits {
		if hit.Content == "" || seen[hit.URL] {
			continue
		}
		seen[hit.URL] = true
		results = append(results, searchResult{PostResult: hit, Feedback: labels[hit.URL]})
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearchFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query      string `json:"query"`
		PostURL    string `json:"post_url"`
		PostAuthor string `json:"post_author"`
		Label      string `json:"label"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PostURL == "" {
		writeError(w, http.StatusBadRequest, "post_url is required")
		return
	}
	if err := s.svc.Store.SearchFeedback.Set(body.Query, body.PostURL, body.PostAuthor, body.Label); err != nil {
		if errors.Is(err, store.ErrInvalidLabel) {
			writeError(w, http.StatusBadRequest, "label must be liked or disliked")
			return
		}
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
