package store

import (
	"database/sql"
	"fmt"

	"openlinkedin/internal/core"
)

// FeedItems is the persisted, scored article pool.
type FeedItems struct {
	s *Store
}

const feedItemColumns = `f.id, f.item_hash, f.title, f.content, f.url,
	f.source_name, f.source_category, f.author, f.published_at,
	f.production_score, f.executive_score, f.keyword_score, f.final_score,
	f.content_type, f.type_multiplier, f.freshness_multiplier,
	f.matched_keywords, f.matched_categories, f.saved_to_library, f.fetched_at,
	uf.feedback`

const feedItemFrom = ` FROM feed_items f LEFT JOIN user_feedback uf ON uf.feed_item_id = f.id`

// Upsert inserts a scored item keyed by its content hash. When the hash
// already exists only final_score and fetched_at are refreshed; the stored
// title, content, and url stay as first seen.
func (f *FeedItems) Upsert(item core.ScoredItem) error {
	return f.s.withTx(func(tx *sql.Tx) error {
		return upsertItem(tx, item)
	})
}

// UpsertBatch persists a batch of scored items in one transaction and
// returns how many rows were written.
func (f *FeedItems) UpsertBatch(items []core.ScoredItem) (int, error) {
	var written int
	err := f.s.withTx(func(tx *sql.Tx) error {
		for _, item := range items {
			if err := upsertItem(tx, item); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

func upsertItem(tx *sql.Tx, item core.ScoredItem) error {
	_, err := tx.Exec(`INSERT INTO feed_items
		(item_hash, title, content, url, source_name, source_category, author, published_at,
		 production_score, executive_score, keyword_score, final_score,
		 content_type, type_multiplier, freshness_multiplier,
		 matched_keywords, matched_categories, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_hash) DO UPDATE SET
			final_score = excluded.final_score,
			fetched_at = excluded.fetched_at`,
		item.Hash, item.Title, item.Content, item.URL,
		item.SourceName, item.SourceCategory, item.Author, item.PublishedAt,
		item.ProductionScore, item.ExecutiveScore, item.KeywordScore, item.FinalScore,
		string(item.ContentType), item.TypeMultiplier, item.FreshnessMultiplier,
		marshalList(item.MatchedKeywords), marshalList(item.MatchedCategories), nowISO())
	if err != nil {
		return fmt.Errorf("failed to upsert feed item %s: %w", item.Hash, err)
	}
	return nil
}

// Get returns the item with the given id, or nil when it does not exist.
func (f *FeedItems) Get(id int64) (*core.StoredFeedItem, error) {
	row := f.s.db.QueryRow(`SELECT `+feedItemColumns+feedItemFrom+` WHERE f.id = ?`, id)
	return scanFeedItem(row)
}

// GetByHash returns the item with the given content hash, or nil.
func (f *FeedItems) GetByHash(hash string) (*core.StoredFeedItem, error) {
	row := f.s.db.QueryRow(`SELECT `+feedItemColumns+feedItemFrom+` WHERE f.item_hash = ?`, hash)
	return scanFeedItem(row)
}

// TopScored returns items at or above minScore ordered by final score
// descending, each carrying any user feedback label.
func (f *FeedItems) TopScored(minScore float64, limit int) ([]core.StoredFeedItem, error) {
	query := `SELECT ` + feedItemColumns + feedItemFrom + `
		WHERE f.final_score >= ? ORDER BY f.final_score DESC, f.id ASC`
	args := []any{minScore}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return f.queryItems(query, args...)
}

// BySource returns items from one source, newest fetch first.
func (f *FeedItems) BySource(sourceName string, limit int) ([]core.StoredFeedItem, error) {
	query := `SELECT ` + feedItemColumns + feedItemFrom + `
		WHERE f.source_name = ? ORDER BY f.fetched_at DESC, f.id ASC`
	args := []any{sourceName}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return f.queryItems(query, args...)
}

// All returns every stored item with its feedback label, for training.
func (f *FeedItems) All() ([]core.StoredFeedItem, error) {
	return f.queryItems(`SELECT ` + feedItemColumns + feedItemFrom + ` ORDER BY f.id ASC`)
}

// MarkSaved flags an item as copied into the content library.
func (f *FeedItems) MarkSaved(id int64) (bool, error) {
	var found bool
	err := f.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE feed_items SET saved_to_library = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to mark feed item saved: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Count returns the total number of stored items.
func (f *FeedItems) Count() (int, error) {
	var n int
	if err := f.s.db.QueryRow(`SELECT COUNT(*) FROM feed_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feed items: %w", err)
	}
	return n, nil
}

// CountBySource returns item counts keyed by source name.
func (f *FeedItems) CountBySource() (map[string]int, error) {
	rows, err := f.s.db.Query(`SELECT source_name, COUNT(*) FROM feed_items GROUP BY source_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to count feed items by source: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var source sql.NullString
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[stringOf(source)] = n
	}
	return counts, rows.Err()
}

func (f *FeedItems) queryItems(query string, args ...any) ([]core.StoredFeedItem, error) {
	rows, err := f.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed items: %w", err)
	}
	defer rows.Close()

	var items []core.StoredFeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanFeedItem(row rowScanner) (*core.StoredFeedItem, error) {
	var item core.StoredFeedItem
	var content, url, sourceName, sourceCategory, author, publishedAt sql.NullString
	var contentType, matchedKeywords, matchedCategories, fetchedAt, feedback sql.NullString
	var saved int

	err := row.Scan(&item.ID, &item.Hash, &item.Title, &content, &url,
		&sourceName, &sourceCategory, &author, &publishedAt,
		&item.ProductionScore, &item.ExecutiveScore, &item.KeywordScore, &item.FinalScore,
		&contentType, &item.TypeMultiplier, &item.FreshnessMultiplier,
		&matchedKeywords, &matchedCategories, &saved, &fetchedAt, &feedback)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan feed item: %w", err)
	}

	item.Content = stringOf(content)
	item.URL = stringOf(url)
	item.SourceName = stringOf(sourceName)
	item.SourceCategory = stringOf(sourceCategory)
	item.Author = stringOf(author)
	item.PublishedAt = stringOf(publishedAt)
	item.ContentType = core.ContentType(stringOf(contentType))
	item.MatchedKeywords = unmarshalList(matchedKeywords)
	item.MatchedCategories = unmarshalList(matchedCategories)
	item.SavedToLibrary = saved != 0
	item.FetchedAt = stringOf(fetchedAt)
	if feedback.Valid {
		label := feedback.String
		item.Feedback = &label
	}
	return &item, nil
}
