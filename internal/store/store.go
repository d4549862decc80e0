// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Lookup errors returned by Store methods.
var (
	ErrNoSemester       = errors.New("no semester exists")
	ErrSemesterNotFound = errors.New("semester not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrLastSemester     = errors.New("cannot delete the only semester")
)

const settingCurrentSemester = "current_semester"

// Store wraps SQLite access for semesters, subjects and the daily log.
type Store struct {
	db *sql.DB
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; counter and day-status writes share a transaction.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS semesters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS subjects (
			semester_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			fixed_total INTEGER NOT NULL CHECK (fixed_total >= 1),
			conducted INTEGER NOT NULL CHECK (conducted >= 0 AND conducted <= fixed_total),
			attended INTEGER NOT NULL CHECK (attended >= 0 AND attended <= conducted),
			position INTEGER NOT NULL,
			PRIMARY KEY (semester_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS daily_records (
			semester_id TEXT NOT NULL,
			day TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('present', 'absent', 'no-class')),
			PRIMARY KEY (semester_id, day, subject_id)
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_records_subject ON daily_records(semester_id, subject_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func getSetting(ctx context.Context, q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func setSetting(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func notFound(err error, sentinel error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
