package server

import (
	"errors"
	"fmt"
	"net/http"

	"openlinkedin/internal/core"
	"openlinkedin/internal/publish"
	"openlinkedin/internal/store"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(core.StatusDraft)
	}
	if status == "all" {
		status = ""
	}
	limit := queryInt(r, "limit", 50, 1, 500)

	comments, err := s.svc.Store.Comments.ListByStatus(status, limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		writeInternal(w, err)
		return
	}
	if comments == nil {
		comments = []core.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	comment, err := s.svc.Store.Comments.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body core.Comment
	if !decodeBody(w, r, &body) {
		return
	}
	if result := s.svc.Validator.ValidateComment(body.Content); !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	comment, err := s.svc.Store.Comments.Create(body)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleUpdateCommentStatus(w http.ResponseWriter, r *http.Request) {
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
	found, err := s.svc.Store.Comments.UpdateStatus(id, core.Status(body.Status), body.Reason)
	if err != nil {
		if errors.Is(err, store.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpdateCommentContent(w http.ResponseWriter, r *http.Request) {
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
	found, err := s.svc.Store.Comments.UpdateContent(id, body.Content)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	found, err := s.svc.Store.Comments.Delete(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleApproveAllComments(w http.ResponseWriter, r *http.Request) {
	moved, err := s.svc.Store.Comments.ApproveAllDrafts()
	if err != nil {
		writeInternal(w, err)
		return
	}
	s.appendLog("approve_all_comments", "", "success", fmt.Sprintf("%d comments approved", moved))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": moved})
}

func (s *Server) handlePublishComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	comment, err := s.svc.Store.Comments.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if comment.Status != core.StatusApproved {
		writeError(w, http.StatusBadRequest, "comment must be approved before publishing")
		return
	}
	if comment.TargetPostURL == "" {
		writeError(w, http.StatusBadRequest, "no target post URL")
		return
	}
	if !s.clearSafety(w, "publish_comment") {
		return
	}

	published, err := s.svc.Publisher.PublishComment(r.Context(), comment.TargetPostURL, comment.Content)
	if err != nil {
		if errors.Is(err, publish.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, "publisher not configured")
			return
		}
		s.recordActionError("publish_comment", comment.TargetPostURL, err)
		writeError(w, http.StatusBadGateway, "publishing failed")
		return
	}
	if !published {
		s.recordActionError("publish_comment", comment.TargetPostURL, fmt.Errorf("publisher reported failure"))
		writeError(w, http.StatusBadGateway, "publishing failed")
		return
	}

	s.svc.Safety.RecordAction()
	if _, err := s.svc.Store.Comments.UpdateStatus(id, core.StatusPublished, ""); err != nil {
		writeInternal(w, err)
		return
	}
	s.appendLog("publish_comment", comment.TargetPostURL, "success", fmt.Sprintf("Comment #%d published", id))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handlePublishApprovedComments publishes every approved comment that has a
// target URL. Per-comment failures are counted, never abort the batch; a
// safety block stops the remaining attempts.
func (s *Server) handlePublishApprovedComments(w http.ResponseWriter, r *http.Request) {
	approved, err := s.svc.Store.Comments.ListByStatus(string(core.StatusApproved), 500)
	if err != nil {
		writeInternal(w, err)
		return
	}
	var publishable []core.Comment
	for _, c := range approved {
		if c.TargetPostURL != "" {
			publishable = append(publishable, c)
		}
	}
	if len(publishable) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true, "published": 0, "failed": 0, "message": "No publishable comments",
		})
		return
	}

	published, failed := 0, 0
	for _, c := range publishable {
		if !s.svc.Safety.CanAct() {
			s.svc.Metrics.ActionBlocked("rate_limit")
			break
		}
		s.svc.Metrics.ActionAllowed()
		ok, err := s.svc.Publisher.PublishComment(r.Context(), c.TargetPostURL, c.Content)
		if err != nil {
			if errors.Is(err, publish.ErrNotConfigured) {
				writeError(w, http.StatusBadRequest, "publisher not configured")
				return
			}
			s.svc.Safety.RecordError()
			failed++
			continue
		}
		if !ok {
			s.svc.Safety.RecordError()
			failed++
			continue
		}
		s.svc.Safety.RecordAction()
		if _, err := s.svc.Store.Comments.UpdateStatus(c.ID, core.StatusPublished, ""); err != nil {
			writeInternal(w, err)
			return
		}
		published++
	}
	s.appendLog("batch_publish_comments", "", "success", fmt.Sprintf("%d published, %d failed", published, failed))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "published": published, "failed": failed})
}
