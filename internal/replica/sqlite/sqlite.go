// Package sqlite implements a replica backed by an embedded SQLite
// database (ncruces/go-sqlite3, no cgo). The database runs with WAL so
// concurrent readers are safe while a sync run writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with replica functionality.
type Store struct {
	conn *sql.DB
	path string
	name string
}

// Open creates a replica store at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If it doesn't exist it is created along with the schema. The caller
// MUST call Close() when done.
//
// Example:
//
//	store, err := sqlite.Open(".todosync/local.db", "local")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(path, name string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", replica.ErrUnavailable, err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path, name: name}

	// WAL for concurrent readers, bounded waits on lock contention.
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection after a WAL checkpoint.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// initSchema creates the records table if needed. Idempotent.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_updated ON records(updated_at);
	CREATE INDEX IF NOT EXISTS idx_records_completed ON records(completed);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Name implements replica.Accessor.
func (s *Store) Name() string { return s.name }

// List implements replica.Accessor.
func (s *Store) List(ctx context.Context) ([]*todo.Record, error) {
	query := `
	SELECT id, content, completed, created_at, updated_at
	FROM records
	ORDER BY id ASC
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Create implements replica.Accessor. The insert is an upsert so a
// retried create after a half-completed attempt stays idempotent.
func (s *Store) Create(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}

	query := `
	INSERT INTO records (id, content, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		completed = excluded.completed,
		updated_at = excluded.updated_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		r.ID,
		r.Content,
		boolToInt(r.Completed),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create record %s: %w", r.ID, err)
	}

	return r.Clone(), nil
}

// Update implements replica.Accessor. Returns replica.ErrNotFound if the
// id is absent.
func (s *Store) Update(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}

	query := `
	UPDATE records SET
		content = ?,
		completed = ?,
		updated_at = ?
	WHERE id = ?
	`

	res, err := s.conn.ExecContext(ctx, query,
		r.Content,
		boolToInt(r.Completed),
		r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", r.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", replica.ErrNotFound, r.ID)
	}

	return r.Clone(), nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// scanRecords scans multiple records from query results. Timestamps that
// fail to parse leave the zero time in place; the reconciler treats such
// records as skipped-invalid.
func scanRecords(rows *sql.Rows) ([]*todo.Record, error) {
	var records []*todo.Record

	for rows.Next() {
		var r todo.Record
		var completed int
		var createdAt, updatedAt string

		if err := rows.Scan(&r.ID, &r.Content, &completed, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Completed = completed != 0
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			r.UpdatedAt = t
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
