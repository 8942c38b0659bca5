package store

import (
	"database/sql"
	"fmt"
	"time"

	"openlinkedin/internal/core"
)

// Comments is the queue of drafted comments targeting other people's posts.
type Comments struct {
	s *Store
}

const commentColumns = `id, target_post_url, target_post_author, target_post_content,
	comment_content, strategy, confidence, status, rag_sources,
	created_at, updated_at, published_at, rejection_reason`

// Create inserts a new draft comment and returns it.
func (c *Comments) Create(comment core.Comment) (*core.Comment, error) {
	if comment.Strategy == "" {
		comment.Strategy = core.StrategyGeneric
	}
	now := nowISO()
	var id int64
	err := c.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO comments
			(target_post_url, target_post_author, target_post_content, comment_content,
			 strategy, confidence, status, rag_sources, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 'draft', ?, ?, ?)`,
			comment.TargetPostURL, comment.TargetPostAuthor, comment.TargetPostContent,
			comment.Content, comment.Strategy, comment.Confidence,
			marshalList(comment.RAGSources), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.Get(id)
}

// Get returns the comment with the given id, or nil when it does not exist.
func (c *Comments) Get(id int64) (*core.Comment, error) {
	row := c.s.db.QueryRow(`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListByStatus returns comments filtered by status, newest first. An empty
// status returns every comment.
func (c *Comments) ListByStatus(status string, limit int) ([]core.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments`
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

	rows, err := c.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []core.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

// UpdateStatus moves a comment through the queue lifecycle with the same
// stamping rules as posts.
func (c *Comments) UpdateStatus(id int64, status core.Status, reason string) (bool, error) {
	if !validStatus(string(status)) {
		return false, ErrInvalidStatus
	}
	var found bool
	err := c.s.withTx(func(tx *sql.Tx) error {
		now := nowISO()
		query := `UPDATE comments SET status = ?, updated_at = ?`
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
			return fmt.Errorf("failed to update comment status: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// ApproveAllDrafts promotes every draft comment to approved in one
// transaction and returns how many moved.
func (c *Comments) ApproveAllDrafts() (int, error) {
	var moved int
	err := c.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE comments SET status = 'approved', updated_at = ?
			WHERE status = 'draft'`, nowISO())
		if err != nil {
			return fmt.Errorf("failed to approve drafts: %w", err)
		}
		n, err := res.RowsAffected()
		moved = int(n)
		return err
	})
	return moved, err
}

// UpdateContent replaces a comment's body.
func (c *Comments) UpdateContent(id int64, content string) (bool, error) {
	var found bool
	err := c.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE comments SET comment_content = ?, updated_at = ? WHERE id = ?`,
			content, nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to update comment content: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Delete removes a comment permanently.
func (c *Comments) Delete(id int64) (bool, error) {
	var found bool
	err := c.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM comments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// CountByStatus returns comment counts keyed by status.
func (c *Comments) CountByStatus() (map[string]int, error) {
	return countByStatus(c.s.db, "comments")
}

// Count returns the total number of comments.
func (c *Comments) Count() (int, error) {
	var n int
	err := c.s.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

// CountPublishedToday returns how many comments went live today (UTC).
func (c *Comments) CountPublishedToday() (int, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var n int
	err := c.s.db.QueryRow(`SELECT COUNT(*) FROM comments
		WHERE status = 'published' AND substr(published_at, 1, 10) = ?`, today).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count published comments: %w", err)
	}
	return n, nil
}

func scanComment(row rowScanner) (*core.Comment, error) {
	var comment core.Comment
	var author, targetContent, ragSources sql.NullString
	var createdAt, updatedAt, publishedAt, rejectionReason sql.NullString

	err := row.Scan(&comment.ID, &comment.TargetPostURL, &author, &targetContent,
		&comment.Content, &comment.Strategy, &comment.Confidence, &comment.Status,
		&ragSources, &createdAt, &updatedAt, &publishedAt, &rejectionReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	comment.TargetPostAuthor = stringOf(author)
	comment.TargetPostContent = stringOf(targetContent)
	comment.RAGSources = unmarshalList(ragSources)
	comment.CreatedAt = stringOf(createdAt)
	comment.UpdatedAt = stringOf(updatedAt)
	comment.PublishedAt = stringOf(publishedAt)
	comment.RejectionReason = stringOf(rejectionReason)
	return &comment, nil
}
