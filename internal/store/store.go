// Package store owns all durable state: post and comment queues, the content
// library, scored feed items, user feedback, the interaction log, and a small
// key/value config table, all in a single SQLite file. Mutations run inside
// one commit-or-rollback transaction; absence is reported as a nil value,
// never as an error.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrInvalidStatus is returned for a status value outside the queue lifecycle.
var ErrInvalidStatus = errors.New("store: invalid status")

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL,
	strategy TEXT DEFAULT 'thought_leadership',
	status TEXT DEFAULT 'draft' CHECK(status IN ('draft','approved','published','rejected')),
	rag_sources TEXT,
	linkedin_url TEXT,
	asset_path TEXT,
	asset_type TEXT,
	created_at TEXT,
	updated_at TEXT,
	published_at TEXT,
	rejection_reason TEXT
);

CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_post_url TEXT NOT NULL,
	target_post_author TEXT,
	target_post_content TEXT,
	comment_content TEXT NOT NULL,
	strategy TEXT DEFAULT 'generic' CHECK(strategy IN ('grounded','generic')),
	confidence REAL DEFAULT 0.0,
	status TEXT DEFAULT 'draft' CHECK(status IN ('draft','approved','published','rejected')),
	rag_sources TEXT,
	created_at TEXT,
	updated_at TEXT,
	published_at TEXT,
	rejection_reason TEXT
);

CREATE TABLE IF NOT EXISTS interaction_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action_type TEXT NOT NULL,
	target_url TEXT,
	status TEXT DEFAULT 'success',
	details TEXT,
	created_at TEXT
);

CREATE TABLE IF NOT EXISTS content_library (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source TEXT,
	tags TEXT,
	personal_thoughts TEXT,
	generated_title TEXT,
	generated_post TEXT,
	created_at TEXT,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS feed_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_hash TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	content TEXT,
	url TEXT,
	source_name TEXT,
	source_category TEXT,
	author TEXT,
	published_at TEXT,
	production_score REAL DEFAULT 0.0,
	executive_score REAL DEFAULT 0.0,
	keyword_score REAL DEFAULT 0.0,
	final_score REAL DEFAULT 0.0,
	content_type TEXT,
	type_multiplier REAL DEFAULT 1.0,
	freshness_multiplier REAL DEFAULT 1.0,
	matched_keywords TEXT,
	matched_categories TEXT,
	saved_to_library INTEGER DEFAULT 0,
	fetched_at TEXT
);

CREATE TABLE IF NOT EXISTS user_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feed_item_id INTEGER UNIQUE NOT NULL,
	item_hash TEXT NOT NULL,
	feedback TEXT NOT NULL CHECK(feedback IN ('liked','disliked')),
	created_at TEXT
);

CREATE TABLE IF NOT EXISTS search_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT,
	post_url TEXT UNIQUE NOT NULL,
	post_author TEXT,
	feedback TEXT NOT NULL CHECK(feedback IN ('liked','disliked')),
	created_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_feed_items_final_score ON feed_items(final_score DESC);
CREATE INDEX IF NOT EXISTS idx_feed_items_source ON feed_items(source_name);
CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
CREATE INDEX IF NOT EXISTS idx_comments_status ON comments(status);
`

// Store is the storage service. The typed collections expose per-table
// surfaces; they all share the Store's connection and transactional
// discipline.
type Store struct {
	db   *sql.DB
	path string

	Posts          *Posts
	Comments       *Comments
	Library        *Library
	FeedItems      *FeedItems
	Feedback       *Feedback
	SearchFeedback *SearchFeedback
	Log            *InteractionLog
	Config         *ConfigKV
}

// Open opens (creating if needed) the SQLite database at dbPath, applies the
// schema, and runs forward-only migrations so databases created by older
// versions open without manual intervention.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite admits one writer at a time; a single pooled connection
	// serialises callers instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	s.Posts = &Posts{s: s}
	s.Comments = &Comments{s: s}
	s.Library = &Library{s: s}
	s.FeedItems = &FeedItems{s: s}
	s.Feedback = &Feedback{s: s}
	s.SearchFeedback = &SearchFeedback{s: s}
	s.Log = &InteractionLog{s: s}
	s.Config = &ConfigKV{s: s}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Debug().Str("path", s.path).Msg("store initialized")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on any error.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// nowISO returns the current UTC time as an ISO-8601 string, the format of
// every timestamp column.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// marshalList serialises a string list for a JSON-valued column. Empty lists
// store as NULL.
func marshalList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	b, _ := json.Marshal(values)
	return string(b)
}

// unmarshalList parses a JSON-valued column back into a list. NULL or
// malformed values come back empty rather than failing the read.
func unmarshalList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil
	}
	return values
}

func stringOf(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func validStatus(status string) bool {
	switch status {
	case "draft", "approved", "published", "rejected":
		return true
	}
	return false
}
