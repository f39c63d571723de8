// Package storage persists the audit trail of match runs in SQLite: which
// files were imported, which records were linked in each run, and the run
// outcome counts. The matching engine itself never touches storage.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite database access for match-run history.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and applies pending migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a match run and returns its id.
func (s *Store) StartRun() (string, error) {
	runID := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO match_runs (id, status) VALUES (?, 'running')`,
		runID,
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return runID, nil
}

// CompleteRun records the outcome counts of a finished run.
func (s *Store) CompleteRun(runID string, matched, singletons, ambiguous, rejected int) error {
	_, err := s.db.Exec(`
		UPDATE match_runs
		SET completed_at = CURRENT_TIMESTAMP,
		    matched_pairs = ?,
		    singletons = ?,
		    ambiguities = ?,
		    rejected = ?,
		    status = 'completed'
		WHERE id = ?`,
		matched, singletons, ambiguous, rejected, runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// SaveLinks persists the record pairings a run produced.
func (s *Store) SaveLinks(runID string, links []MatchLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO match_links (run_id, canonical_id, linked_id, phase, reason)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, link := range links {
		if _, err := stmt.Exec(runID, link.CanonicalID, link.LinkedID, link.Phase, link.Reason); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save link %s->%s: %w", link.CanonicalID, link.LinkedID, err)
		}
	}
	return tx.Commit()
}

// LinksByRun returns the pairings recorded for a run, insertion order.
func (s *Store) LinksByRun(runID string) ([]MatchLink, error) {
	rows, err := s.db.Query(`
		SELECT canonical_id, linked_id, phase, reason
		FROM match_links
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []MatchLink
	for rows.Next() {
		var link MatchLink
		if err := rows.Scan(&link.CanonicalID, &link.LinkedID, &link.Phase, &link.Reason); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// RecordFileImport notes that an export file was imported. Re-importing the
// same content overwrites the earlier row.
func (s *Store) RecordFileImport(fileHash, fileName, platform string, recordCount int) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO file_imports (file_hash, file_name, platform, record_count, imported_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		fileHash, fileName, platform, recordCount,
	)
	return err
}

// WasImported reports whether a file with this content hash was seen before.
func (s *Store) WasImported(fileHash string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM file_imports WHERE file_hash = ?`, fileHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, status,
		       matched_pairs, singletons, ambiguities, rejected
		FROM match_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.Status,
			&run.MatchedPairs,
			&run.Singletons,
			&run.Ambiguities,
			&run.Rejected,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
