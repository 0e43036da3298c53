// Package history persists a log of sync runs in an embedded SQLite
// database so `tds status` and `tds history` can show what happened
// when. The reconciler itself never touches this store; callers record
// reports after each run.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kestrel-tools/todosync/internal/reconcile"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Entry is one recorded sync run.
type Entry struct {
	ID         int64
	Mode       string
	StartedAt  time.Time
	Duration   time.Duration
	CreatedOnA int
	CreatedOnB int
	UpdatedOnA int
	UpdatedOnB int
	Skipped    int
	Invalid    int
	Failed     int
	FailedIDs  string
}

// Store wraps the SQLite connection holding the run log.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the history database at path.
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the history database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_on_a INTEGER NOT NULL DEFAULT 0,
		created_on_b INTEGER NOT NULL DEFAULT 0,
		updated_on_a INTEGER NOT NULL DEFAULT 0,
		updated_on_b INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		invalid INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		failed_ids TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Record appends one run to the log.
func (s *Store) Record(ctx context.Context, report *reconcile.Report) error {
	failedIDs := make([]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		failedIDs = append(failedIDs, f.ID)
	}

	query := `
	INSERT INTO sync_runs (
		mode, started_at, duration_ms,
		created_on_a, created_on_b, updated_on_a, updated_on_b,
		skipped, invalid, failed, failed_ids
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, query,
		report.Mode.String(),
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.Duration.Milliseconds(),
		report.CreatedOnA,
		report.CreatedOnB,
		report.UpdatedOnA,
		report.UpdatedOnB,
		report.SkippedEqual,
		len(report.SkippedInvalid),
		len(report.Failures),
		strings.Join(failedIDs, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, mode, started_at, duration_ms,
	       created_on_a, created_on_b, updated_on_a, updated_on_b,
	       skipped, invalid, failed, failed_ids
	FROM sync_runs
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := s.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt string
		var durationMS int64

		err := rows.Scan(
			&e.ID, &e.Mode, &startedAt, &durationMS,
			&e.CreatedOnA, &e.CreatedOnB, &e.UpdatedOnA, &e.UpdatedOnB,
			&e.Skipped, &e.Invalid, &e.Failed, &e.FailedIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}

		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = t
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return entries, nil
}

// LastRun returns the most recent run, or nil if the log is empty.
func (s *Store) LastRun(ctx context.Context) (*Entry, error) {
	entries, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
