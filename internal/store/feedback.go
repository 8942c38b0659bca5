package store

import (
	"database/sql"
	"errors"
	"fmt"

	"openlinkedin/internal/core"
)

// ErrInvalidLabel is returned for feedback values other than liked/disliked.
var ErrInvalidLabel = errors.New("store: feedback must be liked or disliked")

// Feedback stores explicit liked/disliked labels on feed items. One label per
// item; relabelling replaces the previous value.
type Feedback struct {
	s *Store
}

// Set records a label for a feed item. Setting the same label twice is a
// no-op; a different label replaces the old one. It reports whether the feed
// item exists.
func (fb *Feedback) Set(feedItemID int64, label string) (bool, error) {
	if label != core.FeedbackLiked && label != core.FeedbackDisliked {
		return false, ErrInvalidLabel
	}
	var found bool
	err := fb.s.withTx(func(tx *sql.Tx) error {
		var hash string
		err := tx.QueryRow(`SELECT item_hash FROM feed_items WHERE id = ?`, feedItemID).Scan(&hash)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up feed item: %w", err)
		}
		found = true

		_, err = tx.Exec(`INSERT INTO user_feedback (feed_item_id, item_hash, feedback, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(feed_item_id) DO UPDATE SET
				feedback = excluded.feedback,
				created_at = excluded.created_at`,
			feedItemID, hash, label, nowISO())
		if err != nil {
			return fmt.Errorf("failed to record feedback: %w", err)
		}
		return nil
	})
	return found, err
}

// Clear removes the label from a feed item.
func (fb *Feedback) Clear(feedItemID int64) (bool, error) {
	var found bool
	err := fb.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM user_feedback WHERE feed_item_id = ?`, feedItemID)
		if err != nil {
			return fmt.Errorf("failed to clear feedback: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Counts returns how many items carry each label.
func (fb *Feedback) Counts() (liked, disliked int, err error) {
	rows, err := fb.s.db.Query(`SELECT feedback, COUNT(*) FROM user_feedback GROUP BY feedback`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return 0, 0, err
		}
		switch label {
		case core.FeedbackLiked:
			liked = n
		case core.FeedbackDisliked:
			disliked = n
		}
	}
	return liked, disliked, rows.Err()
}

// ImplicitPositiveHashes returns the hashes of feed items that fed a
// published post: the item was saved into the library (library source equals
// the item URL) and a published post cites that library document in its
// rag_sources. Publishing a post built on an article is treated as a like
// even when the user never labelled it.
func (fb *Feedback) ImplicitPositiveHashes() ([]string, error) {
	rows, err := fb.s.db.Query(`
		SELECT DISTINCT f.item_hash
		FROM feed_items f
		JOIN content_library cl ON cl.source = f.url AND f.url != ''
		JOIN posts p ON p.status = 'published'
			AND p.rag_sources LIKE '%"' || cl.id || '"%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query implicit positives: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, rows.Err()
}

// SearchFeedback stores thumbs ratings on comment-target search results,
// keyed by the target post URL.
type SearchFeedback struct {
	s *Store
}

// Set records a label for a search result. Relabelling the same URL replaces
// the previous value.
func (sf *SearchFeedback) Set(query, postURL, postAuthor, label string) error {
	if label != core.FeedbackLiked && label != core.FeedbackDisliked {
		return ErrInvalidLabel
	}
	return sf.s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO search_feedback (query, post_url, post_author, feedback, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(post_url) DO UPDATE SET
				query = excluded.query,
				post_author = excluded.post_author,
				feedback = excluded.feedback,
				created_at = excluded.created_at`,
			query, postURL, postAuthor, label, nowISO())
		if err != nil {
			return fmt.Errorf("failed to record search feedback: %w", err)
		}
		return nil
	})
}

// Map returns post URL -> label for every rated search result.
func (sf *SearchFeedback) Map() (map[string]string, error) {
	rows, err := sf.s.db.Query(`SELECT post_url, feedback FROM search_feedback`)
	if err != nil {
		return nil, fmt.Errorf("failed to query search feedback: %w", err)
	}
	defer rows.Close()

	labels := map[string]string{}
	for rows.Next() {
		var url, label string
		if err := rows.Scan(&url, &label); err != nil {
			return nil, err
		}
		labels[url] = label
	}
	return labels, rows.Err()
}

// List returns rated search results newest first.
func (sf *SearchFeedback) List(limit int) ([]core.SearchFeedbackEntry, error) {
	query := `SELECT id, query, post_url, post_author, feedback, created_at
		FROM search_feedback ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := sf.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search feedback: %w", err)
	}
	defer rows.Close()

	var entries []core.SearchFeedbackEntry
	for rows.Next() {
		var e core.SearchFeedbackEntry
		var query, author, createdAt sql.NullString
		if err := rows.Scan(&e.ID, &query, &e.PostURL, &author, &e.Label, &createdAt); err != nil {
			return nil, err
		}
		e.Query = stringOf(query)
		e.PostAuthor = stringOf(author)
		e.CreatedAt = stringOf(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
