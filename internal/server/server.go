// Package server exposes the JSON API: queue management, content library,
// feed browsing and aggregation, reranker training, analytics, and settings.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"openlinkedin/internal/services"
)

// Server is the HTTP facade over the service graph.
type Server struct {
	svc        *services.Services
	router     *chi.Mux
	httpServer *http.Server
	limiter    *rate.Limiter
}

// New creates the server and mounts all routes.
func New(svc *services.Services) *Server {
	s := &Server{
		svc:     svc,
		router:  chi.NewRouter(),
		limiter: rate.NewLimiter(rate.Limit(50), 100),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         svc.Config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.throttle)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/metrics", s.svc.Metrics.Handler().ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get("/stats", s.handleStats)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/settings", s.handleSettings)
		r.Get("/logs", s.handleLogs)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.handleListPosts)
			r.Post("/", s.handleCreatePost)
			r.Get("/{id}", s.handleGetPost)
			r.Delete("/{id}", s.handleDeletePost)
			r.Put("/{id}/status", s.handleUpdatePostStatus)
			r.Put("/{id}/content", s.handleUpdatePostContent)
			r.Put("/{id}/asset", s.handleSetPostAsset)
			r.Delete("/{id}/asset", s.handleClearPostAsset)
			r.Post("/{id}/publish", s.handlePublishPost)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.handleListComments)
			r.Post("/", s.handleCreateComment)
			r.Post("/approve-all", s.handleApproveAllComments)
			r.Post("/publish-approved", s.handlePublishApprovedComments)
			r.Post("/search", s.handleSearchPosts)
			r.Post("/search-feedback", s.handleSearchFeedback)
			r.Get("/{id}", s.handleGetComment)
			r.Delete("/{id}", s.handleDeleteComment)
			r.Put("/{id}/status", s.handleUpdateCommentStatus)
			r.Put("/{id}/content", s.handleUpdateCommentContent)
			r.Post("/{id}/publish", s.handlePublishComment)
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/", s.handleListLibrary)
			r.Post("/", s.handleAddLibraryDoc)
			r.Get("/{id}", s.handleGetLibraryDoc)
			r.Delete("/{id}", s.handleDeleteLibraryDoc)
			r.Put("/{id}/thoughts", s.handleUpdateThoughts)
			r.Put("/{id}/generated", s.handleSetGeneratedPost)
			r.Post("/{id}/to-queue", s.handleLibraryToQueue)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", s.handleListFeed)
			r.Get("/sources", s.handleFeedSources)
			r.Post("/fetch", s.handleFetchFeeds)
			r.Post("/save", s.handleSaveFeedItem)
			r.Post("/retrain", s.handleRetrain)
			r.Post("/{id}/feedback", s.handleFeedFeedback)
		})
	})
}

// throttle applies a process-wide request rate limit.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken enforces bearer-token auth on /api/* when a token is
// configured. Comparison is constant-time.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.svc.Config.Server.APIToken
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
