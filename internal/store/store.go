// Package store persists pipeline runs, their document manifests, and the
// accepted-event snapshots produced by the selection engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store defines the persistence operations the pipeline and selection
// engine depend on.
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	LatestRun(ctx context.Context, userID string) (*Run, error)
	AppendAcceptedEvents(ctx context.Context, userID, runID string, titles []string) error
	AcceptedSnapshots(ctx context.Context, userID string, limit int) ([]AcceptedSnapshot, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertRun      *sql.Stmt
	insertDocument *sql.Stmt
	insertAccepted *sql.Stmt
}

// Open opens (and creates if needed) the SQLite database at path with WAL
// journaling and foreign keys enabled, applies the schema, and returns a
// ready SQLiteStore.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		// sql.Open defers file creation; a missing parent directory would
		// only surface on first use, so fail early instead.
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// NewSQLiteStore applies the schema to an already-opened database and
// prepares statements. Closing the returned store also closes db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("store: prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_documents (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS accepted_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			run_id TEXT NOT NULL,
			titles TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_user_created
			ON runs(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_accepted_user_created
			ON accepted_events(user_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema (%s...): %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRun, err = s.db.Prepare(`
		INSERT INTO runs (id, user_id, created_at) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertDocument, err = s.db.Prepare(`
		INSERT INTO run_documents (run_id, position, name) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertAccepted, err = s.db.Prepare(`
		INSERT INTO accepted_events (user_id, run_id, titles, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

// RecordRun stores a run and its document manifest in a single transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: empty run id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.StmtContext(ctx, s.insertRun).ExecContext(ctx,
		run.ID, run.UserID, run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}

	for i, name := range run.Manifest {
		_, err = tx.StmtContext(ctx, s.insertDocument).ExecContext(ctx, run.ID, i, name)
		if err != nil {
			return fmt.Errorf("record run: insert document %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recent run for userID with its manifest in
// position order, or (nil, nil) when the user has no runs yet.
func (s *SQLiteStore) LatestRun(ctx context.Context, userID string) (*Run, error) {
	var run Run
	var tsStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at FROM runs
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID).Scan(&run.ID, &run.UserID, &tsStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}

	run.CreatedAt, _ = time.Parse(time.RFC3339, tsStr)

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM run_documents WHERE run_id = ? ORDER BY position
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("latest run: manifest: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("latest run: scan manifest: %w", err)
		}
		run.Manifest = append(run.Manifest, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &run, nil
}

// AppendAcceptedEvents stores one full-replace snapshot of the accepted
// titles list under the acting user. The list is JSON-encoded before
// insertion; user-controlled strings never reach the SQL text.
func (s *SQLiteStore) AppendAcceptedEvents(ctx context.Context, userID, runID string, titles []string) error {
	if titles == nil {
		titles = []string{}
	}
	encoded, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("append accepted: encode titles: %w", err)
	}

	_, err = s.insertAccepted.ExecContext(ctx,
		userID, runID, string(encoded), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append accepted: %w", err)
	}
	return nil
}

// AcceptedSnapshots returns the user's snapshots, newest first. A limit of
// zero means a default of 50; a negative limit returns every snapshot.
func (s *SQLiteStore) AcceptedSnapshots(ctx context.Context, userID string, limit int) ([]AcceptedSnapshot, error) {
	if limit == 0 {
		limit = 50
	}
	if limit < 0 {
		// SQLite disables the cap for a negative LIMIT.
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, run_id, titles, created_at FROM accepted_events
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("accepted snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]AcceptedSnapshot, 0)
	for rows.Next() {
		var snap AcceptedSnapshot
		var titlesJSON, tsStr string
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.RunID, &titlesJSON, &tsStr); err != nil {
			return nil, fmt.Errorf("accepted snapshots: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(titlesJSON), &snap.Titles); err != nil {
			return nil, fmt.Errorf("accepted snapshots: decode titles: %w", err)
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339, tsStr)
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// Close releases prepared statements and the underlying database.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.insertRun, s.insertDocument, s.insertAccepted}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
