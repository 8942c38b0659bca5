package store

import (
	"database/sql"
	"fmt"

	"openlinkedin/internal/core"
)

// InteractionLog is the append-only audit trail of externally visible
// actions.
type InteractionLog struct {
	s *Store
}

// Append records one action. Status should be "success" or "error".
func (il *InteractionLog) Append(actionType, targetURL, status, details string) error {
	if status == "" {
		status = "success"
	}
	return il.s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO interaction_log (action_type, target_url, status, details, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			actionType, targetURL, status, details, nowISO())
		if err != nil {
			return fmt.Errorf("failed to append interaction log: %w", err)
		}
		return nil
	})
}

// Recent returns the newest entries first.
func (il *InteractionLog) Recent(limit int) ([]core.InteractionEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := il.s.db.Query(`SELECT id, action_type, target_url, status, details, created_at
		FROM interaction_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction log: %w", err)
	}
	defer rows.Close()

	var entries []core.InteractionEntry
	for rows.Next() {
		var e core.InteractionEntry
		var targetURL, status, details, createdAt sql.NullString
		if err := rows.Scan(&e.ID, &e.ActionType, &targetURL, &status, &details, &createdAt); err != nil {
			return nil, err
		}
		e.TargetURL = stringOf(targetURL)
		e.Status = stringOf(status)
		e.Details = stringOf(details)
		e.CreatedAt = stringOf(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByAction returns action counts since the given ISO timestamp, keyed by
// action type. An empty since counts everything.
func (il *InteractionLog) CountByAction(since string) (map[string]int, error) {
	query := `SELECT action_type, COUNT(*) FROM interaction_log`
	args := []any{}
	if since != "" {
		query += ` WHERE created_at >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY action_type`

	rows, err := il.s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

// ConfigKV is a small key/value table for runtime-tunable settings that
// survive restarts.
type ConfigKV struct {
	s *Store
}

// Set stores a value under key, replacing any previous value.
func (kv *ConfigKV) Set(key, value string) error {
	return kv.s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, nowISO())
		if err != nil {
			return fmt.Errorf("failed to set config %s: %w", key, err)
		}
		return nil
	})
}

// Get returns the value for key, or the empty string when unset.
func (kv *ConfigKV) Get(key string) (string, error) {
	var value string
	err := kv.s.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}

// All returns every stored key/value pair.
func (kv *ConfigKV) All() (map[string]string, error) {
	rows, err := kv.s.db.Query(`SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}
