package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"openlinkedin/internal/core"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store

	postCounts, err := st.Posts.CountByStatus()
	if err != nil {
		writeInternal(w, err)
		return
	}
	totalPosts := 0
	for _, n := range postCounts {
		totalPosts += n
	}
	commentsToday, err := st.Comments.CountPublishedToday()
	if err != nil {
		writeInternal(w, err)
		return
	}
	totalComments, err := st.Comments.Count()
	if err != nil {
		writeInternal(w, err)
		return
	}
	feedItems, err := st.FeedItems.Count()
	if err != nil {
		writeInternal(w, err)
		return
	}
	libraryDocs, err := st.Library.Count()
	if err != nil {
		writeInternal(w, err)
		return
	}
	liked, disliked, err := st.Feedback.Counts()
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":          postCounts,
		"total_posts":    totalPosts,
		"comments_today": commentsToday,
		"total_comments": totalComments,
		"feed_items":     feedItems,
		"library_docs":   libraryDocs,
		"feedback":       map[string]int{"liked": liked, "disliked": disliked},
		"safety":         s.svc.Safety.Stats(),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store

	postCounts, err := st.Posts.CountByStatus()
	if err != nil {
		writeInternal(w, err)
		return
	}
	totalPosts := 0
	for _, n := range postCounts {
		totalPosts += n
	}
	published := postCounts["published"]
	approvalRate := "N/A"
	if totalPosts > 0 {
		approvalRate = fmt.Sprintf("%.0f%%", float64(published)/float64(totalPosts)*100)
	}

	commentsToday, err := st.Comments.CountPublishedToday()
	if err != nil {
		writeInternal(w, err)
		return
	}
	totalComments, err := st.Comments.Count()
	if err != nil {
		writeInternal(w, err)
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	actions, err := st.Log.CountByAction(since)
	if err != nil {
		writeInternal(w, err)
		return
	}
	recent, err := st.Log.Recent(30)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if recent == nil {
		recent = []core.InteractionEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": map[string]any{
			"total":         totalPosts,
			"by_status":     postCounts,
			"published":     published,
			"approval_rate": approvalRate,
		},
		"comments": map[string]any{
			"today": commentsToday,
			"total": totalComments,
		},
		"actions_7d":      actions,
		"recent_activity": recent,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.Config

	keyStatus := "Not set"
	if len(cfg.Gemini.APIKey) > 4 {
		keyStatus = "Configured"
	}
	email := "Not configured"
	if cfg.LinkedIn.Email != "" {
		email = maskEmail(cfg.LinkedIn.Email)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ai": map[string]any{
			"provider":       "gemini",
			"model":          cfg.Gemini.Model,
			"api_key_status": keyStatus,
		},
		"safety": map[string]any{
			"hourly":           cfg.Safety.HourlyActionLimit,
			"daily":            cfg.Safety.DailyActionLimit,
			"weekly":           cfg.Safety.WeeklyActionLimit,
			"error_threshold":  cfg.Safety.ErrorRateThreshold,
			"cooldown_minutes": cfg.Safety.CooldownMinutes,
		},
		"aggregation": map[string]any{
			"min_relevance_score": cfg.Aggregation.MinRelevanceScore,
			"default_priorities":  cfg.Aggregation.DefaultPriorities,
			"auto_save_threshold": cfg.Aggregation.AutoSaveThreshold,
			"cache_ttl_minutes":   cfg.Aggregation.CacheTTLMinutes,
		},
		"linkedin": map[string]any{
			"email": email,
		},
		"server": map[string]any{
			"addr":         cfg.Server.Addr(),
			"auth_enabled": cfg.Server.APIToken != "",
		},
	})
}

// maskEmail hides the local part of an address: "l***@domain".
func maskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 200)
	entries, err := s.svc.Store.Log.Recent(limit)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if entries == nil {
		entries = []core.InteractionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
