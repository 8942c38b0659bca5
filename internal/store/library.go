package store

import (
	"database/sql"
	"fmt"

	"openlinkedin/internal/core"
)

// Library is the saved-article collection that grounds generated content.
type Library struct {
	s *Store
}

const libraryColumns = `id, title, content, source, tags, personal_thoughts,
	generated_title, generated_post, created_at, updated_at`

// Add saves a document and returns it.
func (l *Library) Add(title, content, source string, tags []string) (*core.LibraryDoc, error) {
	now := nowISO()
	var id int64
	err := l.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO content_library (title, content, source, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			title, content, source, marshalList(tags), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert library doc: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return l.Get(id)
}

// Get returns the document with the given id, or nil when it does not exist.
func (l *Library) Get(id int64) (*core.LibraryDoc, error) {
	row := l.s.db.QueryRow(`SELECT `+libraryColumns+` FROM content_library WHERE id = ?`, id)
	return scanLibraryDoc(row)
}

// List returns documents newest first.
func (l *Library) List(limit int) ([]core.LibraryDoc, error) {
	query := `SELECT ` + libraryColumns + ` FROM content_library ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	defer rows.Close()

	var docs []core.LibraryDoc
	for rows.Next() {
		doc, err := scanLibraryDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// BySource returns the document whose source matches exactly, or nil.
func (l *Library) BySource(source string) (*core.LibraryDoc, error) {
	row := l.s.db.QueryRow(`SELECT `+libraryColumns+` FROM content_library WHERE source = ? LIMIT 1`, source)
	return scanLibraryDoc(row)
}

// SetPersonalThoughts records the user's angle on a saved document.
func (l *Library) SetPersonalThoughts(id int64, thoughts string) (bool, error) {
	var found bool
	err := l.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE content_library SET personal_thoughts = ?, updated_at = ? WHERE id = ?`,
			thoughts, nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to update personal thoughts: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// SetGeneratedPost stores a draft title and body produced from this document.
func (l *Library) SetGeneratedPost(id int64, title, body string) (bool, error) {
	var found bool
	err := l.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE content_library SET generated_title = ?, generated_post = ?, updated_at = ?
			WHERE id = ?`, title, body, nowISO(), id)
		if err != nil {
			return fmt.Errorf("failed to update generated post: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Delete removes a document permanently.
func (l *Library) Delete(id int64) (bool, error) {
	var found bool
	err := l.s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM content_library WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete library doc: %w", err)
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// Count returns the number of saved documents.
func (l *Library) Count() (int, error) {
	var n int
	if err := l.s.db.QueryRow(`SELECT COUNT(*) FROM content_library`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count library: %w", err)
	}
	return n, nil
}

func scanLibraryDoc(row rowScanner) (*core.LibraryDoc, error) {
	var doc core.LibraryDoc
	var source, tags, thoughts, genTitle, genPost, createdAt, updatedAt sql.NullString

	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &source, &tags,
		&thoughts, &genTitle, &genPost, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan library doc: %w", err)
	}

	doc.Source = stringOf(source)
	doc.Tags = unmarshalList(tags)
	doc.PersonalThoughts = stringOf(thoughts)
	doc.GeneratedTitle = stringOf(genTitle)
	doc.GeneratedPost = stringOf(genPost)
	doc.CreatedAt = stringOf(createdAt)
	doc.UpdatedAt = stringOf(updatedAt)
	return &doc, nil
}
