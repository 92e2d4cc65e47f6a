// Package scancache persists clean secret-scan results in a small sqlite
// database, keyed by a fingerprint of the pending changeset. Only clean
// results are stored: a dirty tree must always be rescanned after edits.
package scancache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// schema creates the results table. Timestamps are unix seconds (UTC).
const schema = `
CREATE TABLE IF NOT EXISTS clean_scans (
	fingerprint TEXT PRIMARY KEY,
	scanned_at  INTEGER NOT NULL
);
`

// Store is the sqlite-backed clean-result cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open creates or opens the cache database at path and applies the schema.
func Open(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply scan cache schema: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// IsClean reports whether the fingerprint has a clean result younger than
// the TTL. Expired rows are treated as misses (and pruned lazily).
func (s *Store) IsClean(ctx context.Context, fingerprint string) (bool, error) {
	var scannedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT scanned_at FROM clean_scans WHERE fingerprint = ?`, fingerprint,
	).Scan(&scannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query scan cache: %w", err)
	}

	if s.now().UTC().Sub(time.Unix(scannedAt, 0)) > s.ttl {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM clean_scans WHERE fingerprint = ?`, fingerprint)
		return false, nil
	}
	return true, nil
}

// MarkClean records a clean result for the fingerprint.
func (s *Store) MarkClean(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clean_scans (fingerprint, scanned_at) VALUES (?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET scanned_at = excluded.scanned_at`,
		fingerprint, s.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("record clean scan: %w", err)
	}
	return nil
}

// Prune deletes all expired rows. Called opportunistically; failures are
// not fatal to the pipeline.
func (s *Store) Prune(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.ttl).Unix()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM clean_scans WHERE scanned_at < ?`, cutoff); err != nil {
		return fmt.Errorf("prune scan cache: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
