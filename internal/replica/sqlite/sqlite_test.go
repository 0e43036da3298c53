package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath, "local")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testRecord(id, content string) *todo.Record {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &todo.Record{
		ID:        id,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	if _, err := store.Create(ctx, testRecord("r-2", "second")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, testRecord("r-1", "first")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "r-1" {
		t.Errorf("expected records ordered by id, got %s first", records[0].ID)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	r := testRecord("r-1", "original")
	if _, err := store.Create(ctx, r); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// A retried create with newer content must not duplicate the row.
	r.Content = "retried"
	r.UpdatedAt = r.UpdatedAt.Add(time.Second)
	if _, err := store.Create(ctx, r); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record after repeated create, got %d", count)
	}

	records, _ := store.List(ctx)
	if records[0].Content != "retried" {
		t.Errorf("expected last write to win, got %q", records[0].Content)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	r := testRecord("r-1", "draft")
	if _, err := store.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r.Content = "final"
	r.Completed = true
	r.UpdatedAt = r.UpdatedAt.Add(time.Minute)
	if _, err := store.Update(ctx, r); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := records[0]
	if got.Content != "final" || !got.Completed {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Errorf("updated_at mismatch: got %v, want %v", got.UpdatedAt, r.UpdatedAt)
	}
}

func TestUpdateMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.Update(context.Background(), testRecord("ghost", "nope"))
	if !errors.Is(err, replica.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateInvalid(t *testing.T) {
	store := setupStore(t)

	_, err := store.Create(context.Background(), &todo.Record{Content: "no id"})
	if !errors.Is(err, replica.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	store, err := Open(dbPath, "local")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Create(ctx, testRecord("r-1", "durable")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dbPath, "local")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected record to survive reopen, got %d", count)
	}
}
