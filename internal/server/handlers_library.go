package server

import (
	"fmt"
	"net/http"

	"openlinkedin/internal/core"
)

func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100, 1, 500)
	docs, err := s.svc.Store.Library.List(limit)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if docs == nil {
		docs = []core.LibraryDoc{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetLibraryDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, err := s.svc.Store.Library.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAddLibraryDoc(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Source  string   `json:"source"`
		Tags    []string `json:"tags"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Title == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	doc, err := s.svc.Store.Library.Add(body.Title, body.Content, body.Source, body.Tags)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleDeleteLibraryDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	found, err := s.svc.Store.Library.Delete(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpdateThoughts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Thoughts string `json:"thoughts"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	found, err := s.svc.Store.Library.SetPersonalThoughts(id, body.Thoughts)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleSetGeneratedPost stores a title/body pair handed in by an external
// generator, making the doc eligible for the post queue.
func (s *Server) handleSetGeneratedPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Title string `json:"title"`
		Post  string `json:"post"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Post == "" {
		writeError(w, http.StatusBadRequest, "post body is required")
		return
	}
	found, err := s.svc.Store.Library.SetGeneratedPost(id, body.Title, body.Post)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLibraryToQueue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	doc, err := s.svc.Store.Library.Get(id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if doc.GeneratedPost == "" {
		writeError(w, http.StatusBadRequest, "no generated post to send")
		return
	}
	post, err := s.svc.Store.Posts.Create(doc.GeneratedPost, "thought_leadership",
		[]string{fmt.Sprintf("%d", doc.ID)})
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"post_id": post.ID})
}
