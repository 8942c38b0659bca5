package store

import (
	"database/sql"
	"fmt"

	"openlinkedin/internal/core"
)

// Posts is the queue of authored LinkedIn posts.
type Posts struct {
	s *Store
}

const postColumns = `id, content, strategy, status, rag_sources, linkedin_url,
	asset_path, asset_type, created_at, updated_at, published_at, rejection_reason`

// Create inserts a new draft post and returns it.
func (p *Posts) Create(content, strategy string, ragSources []string) (*core.Post, error) {
	if strategy == "" {
		strategy = "thought_leadership"
	}
	now := nowISO()
	var id int64
	err := p.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO posts (content, strategy, status, rag_sources, created_at, updated_at)
			VALUES (?, ?, 'draft', ?, ?, ?)`,
			content, strategy, marshalList(ragSources), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.Get(id)
}

// Get returns the post with the given id, or nil when it does not exist.
func (p *Posts) Get(id int64) (*core.Post, error) {
	row := p.s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// ListByStatus returns posts filtered by status, newest first. An empty
// status returns every post.
func (p *Posts) ListByStatus(status string, limit int) ([]core.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []any{}
	if status != "" {
		if !validStatus(status) {
			return nil, ErrInvalidStatus
		}
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := p.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []core.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// UpdateStatus moves a post through the queue lifecycle. Entering published
// stamps published_at; entering rejected records the reason. It reports
// whether a row was updated.
func (p *Posts) UpdateStatus(id int64, status core.Status, reason string) (bool, error) {
	if !validStatus(string(status)) {
		return false, ErrInvalidStatus
	}
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		now := nowISO()
		query := `UPDATE posts SET status = ?, updated_at = ?`
		args := []any{status, now}
		switch status {
		case core.StatusPublished:
			query += `, published_at = ?`
			args = append(args, now)
		case core.StatusRejected:
			query += `, rejection_reason = ?`
			args = append(args, reason)
		}
		query += ` WHERE id = ?`
		args = append(args, id)

		res, err := tx.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("failed to update post status: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// UpdateContent replaces a post's body, typically after a manual edit.
func (p *Posts) UpdateContent(id int64, content string) (bool, error) {
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`,
			content, nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to update post content: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// MarkPublished stamps the post published with the URL of the live post.
func (p *Posts) MarkPublished(id int64, linkedinURL string) (bool, error) {
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		now := nowISO()
		res, err := tx.Exec(`UPDATE posts SET status = 'published', linkedin_url = ?,
			published_at = ?, updated_at = ? WHERE id = ?`,
			linkedinURL, now, now, id)
		if err != nil {
			return fmt.Errorf("failed to mark post published: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// SetAsset attaches an image or video file to a post.
func (p *Posts) SetAsset(id int64, path, assetType string) (bool, error) {
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE posts SET asset_path = ?, asset_type = ?, updated_at = ? WHERE id = ?`,
			path, assetType, nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to set post asset: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// ClearAsset detaches any asset from a post.
func (p *Posts) ClearAsset(id int64) (bool, error) {
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE posts SET asset_path = NULL, asset_type = NULL, updated_at = ? WHERE id = ?`,
			nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to clear post asset: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Delete removes a post permanently.
func (p *Posts) Delete(id int64) (bool, error) {
	var found bool
	err := p.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// CountByStatus returns post counts keyed by status.
func (p *Posts) CountByStatus() (map[string]int, error) {
	return countByStatus(p.s.db, "posts")
}

func countByStatus(db *sql.DB, table string) (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM ` + table + ` GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*core.Post, error) {
	var post core.Post
	var ragSources, linkedinURL, assetPath, assetType sql.NullString
	var createdAt, updatedAt, publishedAt, rejectionReason sql.NullString

	err := row.Scan(&post.ID, &post.Content, &post.Strategy, &post.Status,
		&ragSources, &linkedinURL, &assetPath, &assetType,
		&createdAt, &updatedAt, &publishedAt, &rejectionReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	post.RAGSources = unmarshalList(ragSources)
	post.LinkedInURL = stringOf(linkedinURL)
	post.AssetPath = stringOf(assetPath)
	post.AssetType = stringOf(assetType)
	post.CreatedAt = stringOf(createdAt)
	post.UpdatedAt = stringOf(updatedAt)
	post.PublishedAt = stringOf(publishedAt)
	post.RejectionReason = stringOf(rejectionReason)
	return &post, nil
}
