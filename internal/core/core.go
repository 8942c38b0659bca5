package core

// ContentType classifies what kind of article a feed item is.
type ContentType string

const (
	ContentTypeCaseStudy     ContentType = "production_case_study"
	ContentTypeInfraDeepDive ContentType = "infrastructure_deep_dive"
	ContentTypeComparison    ContentType = "framework_comparison"
	ContentTypeBenchmark     ContentType = "benchmark_real_workload"
	ContentTypeResearchCode  ContentType = "research_with_code"
	ContentTypeTutorial      ContentType = "technical_tutorial"
	ContentTypePureResearch  ContentType = "pure_research"
	ContentTypeGeneral       ContentType = "general"
)

// SourceKind declares the wire format of a feed endpoint.
type SourceKind string

const (
	SourceKindRSS         SourceKind = "rss"
	SourceKindAtom        SourceKind = "atom"
	SourceKindDailyPapers SourceKind = "json_daily_papers"
)

// Status of a queued post or comment. Transitions form a DAG:
// draft -> approved -> published, rejected reachable from draft or approved,
// and published -> approved for reposts.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// Feedback labels attached to feed items.
const (
	FeedbackLiked    = "liked"
	FeedbackDisliked = "disliked"
)

// FeedSource is a static configuration record for one feed endpoint.
type FeedSource struct {
	Name     string     `json:"name"`     // Human-readable source name
	URL      string     `json:"url"`      // Endpoint URL
	Kind     SourceKind `json:"kind"`     // Wire format (rss, atom, json_daily_papers)
	Priority int        `json:"priority"` // Quality tier 1 (highest) to 4
	Category string     `json:"category"` // Topical category label
	Enabled  bool       `json:"enabled"`  // Whether the source participates in fetches
}

// FeedItem is one normalised article ingested from a source.
type FeedItem struct {
	Hash           string `json:"item_hash"`       // First 16 hex chars of SHA-256(title||url)
	Title          string `json:"title"`           // Article title, HTML stripped
	Content        string `json:"content"`         // Description/summary, HTML stripped
	URL            string `json:"url"`             // Canonical article link
	SourceName     string `json:"source_name"`     // Name of the feed it came from
	SourceCategory string `json:"source_category"` // Category of the feed it came from
	Author         string `json:"author"`          // Author if the feed declares one
	PublishedAt    string `json:"published_at"`    // Publication date as received (unparsed)
}

// ScoreRecord holds the multi-axis relevance scores for one item.
type ScoreRecord struct {
	ProductionScore     float64     `json:"production_score"`     // Weighted production-keyword sum
	ExecutiveScore      float64     `json:"executive_score"`      // Executive positioning sum
	KeywordScore        float64     `json:"keyword_score"`        // Priority-tiered taxonomy hits
	ContentType         ContentType `json:"content_type"`         // Classified article kind
	TypeMultiplier      float64     `json:"type_multiplier"`      // Multiplier for the content type
	FreshnessMultiplier float64     `json:"freshness_multiplier"` // Age decay in [0.1, 1.0]
	FinalScore          float64     `json:"final_score"`          // Composite score, 2 decimals
	MatchedKeywords     []string    `json:"matched_keywords"`     // Up to 15 taxonomy keywords found
	MatchedCategories   []string    `json:"matched_categories"`   // Taxonomy categories with a hit
}

// ScoredItem pairs a feed item with its score record. Rerankers overwrite
// FinalScore in place.
type ScoredItem struct {
	FeedItem
	ScoreRecord
}

// StoredFeedItem is a persisted feed item row.
type StoredFeedItem struct {
	ID             int64   `json:"id"`
	ScoredItem             // flattened item + score columns
	SavedToLibrary bool    `json:"saved_to_library"` // Auto-saved into the content library
	FetchedAt      string  `json:"fetched_at"`       // Last ingestion timestamp (UTC ISO-8601)
	Feedback       *string `json:"feedback"`         // liked/disliked when the user labelled it
}

// Post is a queued LinkedIn post.
type Post struct {
	ID              int64    `json:"id"`
	Content         string   `json:"content"`
	Strategy        string   `json:"strategy"`
	Status          Status   `json:"status"`
	RAGSources      []string `json:"rag_sources"`      // Content-library doc ids that seeded the post
	LinkedInURL     string   `json:"linkedin_url"`     // URL of the live post once published
	AssetPath       string   `json:"asset_path"`       // Attached image/video file
	AssetType       string   `json:"asset_type"`       // "image" or "video"
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	PublishedAt     string   `json:"published_at"`
	RejectionReason string   `json:"rejection_reason"`
}

// Comment strategy values.
const (
	StrategyGrounded = "grounded" // backed by library context
	StrategyGeneric  = "generic"
)

// Comment is a queued LinkedIn comment targeting someone else's post.
type Comment struct {
	ID                int64    `json:"id"`
	TargetPostURL     string   `json:"target_post_url"`
	TargetPostAuthor  string   `json:"target_post_author"`
	TargetPostContent string   `json:"target_post_content"`
	Content           string   `json:"comment_content"`
	Strategy          string   `json:"strategy"`   // grounded or generic
	Confidence        float64  `json:"confidence"` // model self-assessment in [0,1]
	Status            Status   `json:"status"`
	RAGSources        []string `json:"rag_sources"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	PublishedAt       string   `json:"published_at"`
	RejectionReason   string   `json:"rejection_reason"`
}

// LibraryDoc is a saved article in the content library.
type LibraryDoc struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Source           string   `json:"source"` // URL or source name the doc came from
	Tags             []string `json:"tags"`
	PersonalThoughts string   `json:"personal_thoughts"` // User's angle for a future post
	GeneratedTitle   string   `json:"generated_title"`   // Draft title handed in by a generator
	GeneratedPost    string   `json:"generated_post"`    // Draft body handed in by a generator
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// FeedbackEntry is one explicit user label on a feed item.
type FeedbackEntry struct {
	ID         int64  `json:"id"`
	FeedItemID int64  `json:"feed_item_id"`
	ItemHash   string `json:"item_hash"`
	Label      string `json:"feedback"` // liked or disliked
	CreatedAt  string `json:"created_at"`
}

// SearchFeedbackEntry is a thumbs rating on a comment-target search result.
type SearchFeedbackEntry struct {
	ID         int64  `json:"id"`
	Query      string `json:"query"`
	PostURL    string `json:"post_url"`
	PostAuthor string `json:"post_author"`
	Label      string `json:"feedback"`
	CreatedAt  string `json:"created_at"`
}

// InteractionEntry is one audit-log row for an externally visible action.
type InteractionEntry struct {
	ID         int64  `json:"id"`
	ActionType string `json:"action_type"`
	TargetURL  string `json:"target_url"`
	Status     string `json:"status"` // success or error
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// SafetyStats is a point-in-time snapshot of the safety monitor.
type SafetyStats struct {
	HourlyRemaining int     `json:"hourly_remaining"`
	DailyRemaining  int     `json:"daily_remaining"`
	WeeklyRemaining int     `json:"weekly_remaining"`
	ErrorRate       float64 `json:"error_rate"` // errors/(errors+successes) over the error window
	InCooldown      bool    `json:"in_cooldown"`
}

// Training statuses reported by the reranker.
const (
	TrainStatusTrained      = "trained"
	TrainStatusInsufficient = "insufficient_data"
	TrainStatusNotTrained   = "not_trained"
)

// TrainReport summarises one training run (or why it did not happen).
type TrainReport struct {
	Status            string             `json:"status"`
	TotalSamples      int                `json:"total_samples,omitempty"`
	Liked             int                `json:"liked,omitempty"`
	Disliked          int                `json:"disliked,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	Samples           int                `json:"samples,omitempty"`      // labelled rows seen when insufficient
	MinRequired       int                `json:"min_required,omitempty"` // training threshold when insufficient
	ModelExists       bool               `json:"model_exists,omitempty"` // a model file is on disk (not_trained only)
}
