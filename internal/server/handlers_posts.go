package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"openlinkedin/internal/core"
	"openlinkedin/internal/publish"
	"openlinkedin/internal/store"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(core.StatusDraft)
	}
	if status == "all" {
		status = ""
	}
	limit := queryInt(r, "limit", 50, 1, 500)

	posts, err := s.svc.Store.Posts.ListByStatus(status, limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		writeInternal(w, err)
		return
	}
	if posts == nil {
		posts = []core.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	post, err := s.svc.Store.Posts.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content    string   `json:"content"`
		Strategy   string   `json:"strategy"`
		RAGSources []string `json:"rag_sources"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if result := s.svc.Validator.ValidatePost(body.Content); !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	post, err := s.svc.Store.Posts.Create(body.Content, body.Strategy, body.RAGSources)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdatePostStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	found, err := s.svc.Store.Posts.UpdateStatus(id, core.Status(body.Status), body.Reason)
	if err != nil {
		if errors.Is(err, store.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	s.appendLog("update_post_status", "", "success", fmt.Sprintf("Post #%d -> %s", id, body.Status))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpdatePostContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	found, err := s.svc.Store.Posts.UpdateContent(id, body.Content)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSetPostAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path"`
		Type string `json:"type"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Type != "image" && body.Type != "video" {
		writeError(w, http.StatusBadRequest, "asset type must be image or video")
		return
	}
	found, err := s.svc.Store.Posts.SetAsset(id, body.Path, body.Type)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClearPostAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	found, err := s.svc.Store.Posts.ClearAsset(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	found, err := s.svc.Store.Posts.Delete(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	post, err := s.svc.Store.Posts.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if post.Status != core.StatusApproved {
		writeError(w, http.StatusBadRequest, "post must be approved before publishing")
		return
	}
	if !s.clearSafety(w, "publish_post") {
		return
	}

	assetPath := post.AssetPath
	if assetPath != "" {
		if _, err := os.Stat(assetPath); err != nil {
			log.Warn().Str("path", assetPath).Msg("asset missing on disk, publishing without it")
			assetPath = ""
		}
	}

	published, err := s.svc.Publisher.PublishPost(r.Context(), post.Content, assetPath)
	if err != nil {
		if errors.Is(err, publish.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, "publisher not configured")
			return
		}
		s.recordActionError("publish_post", "", err)
		writeError(w, http.StatusBadGateway, "publishing failed")
		return
	}
	if !published {
		s.recordActionError("publish_post", "", fmt.Errorf("publisher reported failure"))
		writeError(w, http.StatusBadGateway, "publishing failed")
		return
	}

	s.svc.Safety.RecordAction()

	postURL, err := s.svc.Publisher.LatestPostURL(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not resolve published post URL")
		postURL = ""
	}
	if _, err := s.svc.Store.Posts.MarkPublished(id, postURL); err != nil {
		writeInternal(w, err)
		return
	}

	detail := fmt.Sprintf("Post #%d published", id)
	if sourceURL := s.sourceURLFor(post); sourceURL != "" && postURL != "" {
		text := "Source article: " + sourceURL
		if _, err := s.svc.Publisher.PublishComment(r.Context(), postURL, text); err != nil {
			log.Warn().Err(err).Msg("source-link comment failed")
		} else {
			detail += " + source link comment"
		}
	}
	s.appendLog("publish_post", postURL, "success", detail)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "linkedin_url": postURL})
}

// sourceURLFor returns the source URL of the first library doc that seeded
// the post, for the source-link first comment.
func (s *Server) sourceURLFor(post *core.Post) string {
	if len(post.RAGSources) == 0 {
		return ""
	}
	var docID int64
	if _, err := fmt.Sscanf(strings.TrimSpace(post.RAGSources[0]), "%d", &docID); err != nil {
		return ""
	}
	doc, err := s.svc.Store.Library.Get(docID)
	if err != nil || doc == nil {
		return ""
	}
	return doc.Source
}

// clearSafety consults the monitor before an external action. Writes the 429
// and records the block when refused.
func (s *Server) clearSafety(w http.ResponseWriter, action string) bool {
	if s.svc.Safety.CanAct() {
		s.svc.Metrics.ActionAllowed()
		return true
	}
	s.svc.Metrics.ActionBlocked("rate_limit")
	s.appendLog(action, "", "error", "blocked by safety limits")
	writeError(w, http.StatusTooManyRequests, "action blocked by safety limits")
	return false
}

func (s *Server) recordActionError(action, targetURL string, err error) {
	s.svc.Safety.RecordError()
	s.appendLog(action, targetURL, "error", err.Error())
}

func (s *Server) appendLog(action, targetURL, status, details string) {
	if err := s.svc.Store.Log.Append(action, targetURL, status, details); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("could not append interaction log")
	}
}
