package snapshot

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(id, content string, updated time.Time) *todo.Record {
	return &todo.Record{
		ID:        id,
		Content:   content,
		CreatedAt: t0,
		UpdatedAt: updated,
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := replica.NewMemory("src")
	src.Seed(rec("1", "buy milk", t0), rec("2", "walk dog", t0.Add(time.Minute)))

	var buf bytes.Buffer
	n, err := Export(ctx, src, &buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 exported, got %d", n)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("expected one line per record, got %d lines", got)
	}

	dst := replica.NewMemory("dst")
	result, err := Import(ctx, dst, &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || len(result.Errors) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	got := dst.Get("2")
	if got == nil || got.Content != "walk dog" || !got.UpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("record not imported faithfully: %+v", got)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	src := replica.NewMemory("src")
	src.Seed(rec("1", "buy milk", t0))

	var buf bytes.Buffer
	if _, err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data := buf.Bytes()

	dst := replica.NewMemory("dst")
	if _, err := Import(ctx, dst, bytes.NewReader(data)); err != nil {
		t.Fatalf("first Import failed: %v", err)
	}

	result, err := Import(ctx, dst, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if result.Created != 0 || result.Updated != 0 || result.Skipped != 1 {
		t.Errorf("second import should skip everything: %+v", result)
	}
}

func TestImportNewerWins(t *testing.T) {
	ctx := context.Background()
	dst := replica.NewMemory("dst")
	dst.Seed(rec("1", "stale", t0))

	line := `{"id":"1","content":"fresh","completed":false,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T01:00:00Z"}` + "\n"
	result, err := Import(ctx, dst, strings.NewReader(line))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("newer incoming record should update: %+v", result)
	}
	if got := dst.Get("1").Content; got != "fresh" {
		t.Errorf("expected fresh content, got %q", got)
	}

	// Older incoming copy never overwrites.
	older := `{"id":"1","content":"ancient","completed":false,"created_at":"2024-01-01T00:00:00Z","updated_at":"2023-06-01T00:00:00Z"}` + "\n"
	result, err = Import(ctx, dst, strings.NewReader(older))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Skipped != 1 || dst.Get("1").Content != "fresh" {
		t.Errorf("older copy must not overwrite: %+v", result)
	}
}

func TestImportCollectsBadLines(t *testing.T) {
	ctx := context.Background()
	dst := replica.NewMemory("dst")

	input := `{"id":"ok","content":"fine","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}
{"id":"","content":"missing id","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}
not json at all
`
	result, err := Import(ctx, dst, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("valid record should still import, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 collected errors, got %v", result.Errors)
	}
}

func TestExportImportFile(t *testing.T) {
	ctx := context.Background()
	src := replica.NewMemory("src")
	src.Seed(rec("1", "buy milk", t0))

	path := filepath.Join(t.TempDir(), "todos.jsonl")
	n, err := ExportFile(ctx, src, path)
	if err != nil {
		t.Fatalf("ExportFile failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 exported, got %d", n)
	}

	dst := replica.NewMemory("dst")
	result, err := ImportFile(ctx, dst, path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}
