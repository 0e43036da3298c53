// Package file implements a replica backed by a directory of JSON files,
// one record per file (records/{id}.json). This is the "local sandbox"
// side in the default setup: human-inspectable, diff-friendly, and easy
// to seed by hand.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
)

// Store is a file-backed replica. The directory is created lazily on the
// first write. Invalid files are skipped during List with a warning, not
// treated as fatal: one corrupt record must not take down a sync run.
type Store struct {
	dir    string
	name   string
	logger *log.Logger
}

// New creates a Store rooted at dir. If logger is nil, warnings go to a
// default stderr logger.
func New(dir, name string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[file] ", log.LstdFlags)
	}
	return &Store{dir: dir, name: name, logger: logger}
}

// Name implements replica.Accessor.
func (s *Store) Name() string { return s.name }

// Dir returns the directory this store reads and writes.
func (s *Store) Dir() string { return s.dir }

// List implements replica.Accessor. Files that fail to parse or validate
// are skipped with a warning; records with an unparseable updated_at are
// still returned (with a zero timestamp) so the reconciler can count them
// as skipped-invalid rather than silently losing them.
func (s *Store) List(ctx context.Context) ([]*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*todo.Record{}, nil // empty replica is valid
		}
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	records := make([]*todo.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		r, err := readRecordFile(path)
		if err != nil {
			s.logger.Printf("Warning: skipping invalid record file %s: %v", entry.Name(), err)
			continue
		}
		records = append(records, r)
	}

	return records, nil
}

// Create implements replica.Accessor.
func (s *Store) Create(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}
	if err := s.write(r); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// Update implements replica.Accessor. The id must already exist on disk.
func (s *Store) Update(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}

	path := filepath.Join(s.dir, r.Filename())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", replica.ErrNotFound, r.ID)
	}

	if err := s.write(r); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// write persists a record atomically via a temp file rename.
func (s *Store) write(r *todo.Record) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", r.ID, err)
	}

	path := filepath.Join(s.dir, r.Filename())
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// wireRecord mirrors todo.Record with string timestamps so a garbled
// updated_at degrades to a zero time instead of rejecting the whole file.
type wireRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// readRecordFile reads and parses one record file. A missing or garbled
// updated_at leaves the zero time in place; the reconciler counts such
// records as skipped-invalid.
func readRecordFile(path string) (*todo.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %s: %w", path, err)
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse record file %s: %w", path, err)
	}
	if w.ID == "" {
		return nil, fmt.Errorf("record file %s has no id", path)
	}

	r := &todo.Record{
		ID:        w.ID,
		Content:   w.Content,
		Completed: w.Completed,
	}
	if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
		r.UpdatedAt = t
	}

	return r, nil
}
