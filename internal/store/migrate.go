package store

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations are forward-only column additions. Databases created by older
// versions pick up the columns on open; new databases already have them via
// the schema, so each add is guarded by a column-presence check.
var migrations = []struct {
	table  string
	column string
	decl   string
}{
	{"content_library", "personal_thoughts", "TEXT"},
	{"content_library", "generated_title", "TEXT"},
	{"content_library", "generated_post", "TEXT"},
	{"content_library", "updated_at", "TEXT"},
	{"feed_items", "type_multiplier", "REAL DEFAULT 1.0"},
	{"feed_items", "freshness_multiplier", "REAL DEFAULT 1.0"},
}

func (s *Store) migrate() error {
	for _, m := range migrations {
		has, err := s.hasColumn(m.table, m.column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.decl)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", m.table, m.column, err)
		}
		log.Info().Str("table", m.table).Str("column", m.column).Msg("applied schema migration")
	}
	return nil
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
