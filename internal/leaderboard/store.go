// Package leaderboard persists session results. Records are append-only and
// immutable once written.
package leaderboard

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one finished session.
type Record struct {
	Name      string
	Score     int
	Class     string
	Mode      string // "casual" or "ranked"
	CreatedAt time.Time
}

// Store is a sqlite-backed leaderboard.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    score INTEGER NOT NULL CHECK (score >= 0),
    class TEXT NOT NULL,
    mode TEXT NOT NULL DEFAULT 'casual' CHECK (mode IN ('casual', 'ranked')),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_score ON leaderboard(score DESC);
`

// Open opens (or creates) the store at path. Use ":memory:" for an ephemeral
// store. Safe to call against an existing database; schema creation is
// idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open leaderboard db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create leaderboard schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one record. A zero CreatedAt is stamped with the current time.
func (s *Store) Append(r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO leaderboard (name, score, class, mode, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.Score, r.Class, r.Mode, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append leaderboard record: %w", err)
	}
	return nil
}

// Top returns up to n records ordered by descending score; earlier records
// win ties.
func (s *Store) Top(n int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT name, score, class, mode, created_at FROM leaderboard ORDER BY score DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// All returns every record in insertion order.
func (s *Store) All() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT name, score, class, mode, created_at FROM leaderboard ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Score, &r.Class, &r.Mode, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
