package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-tools/todosync/internal/reconcile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := &reconcile.Report{
		Mode:         reconcile.ModeTwoWay,
		StartedAt:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Duration:     120 * time.Millisecond,
		CreatedOnB:   2,
		UpdatedOnA:   1,
		SkippedEqual: 5,
	}
	second := &reconcile.Report{
		Mode:      reconcile.ModeAToB,
		StartedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Duration:  80 * time.Millisecond,
		Failures: []reconcile.Failure{
			{ID: "abc", Target: reconcile.TargetB, Kind: reconcile.OpUpdate, Reason: "timeout"},
		},
		SkippedInvalid: []string{"bad-1"},
	}

	if err := s.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(ctx, second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Mode != "a-to-b" || entries[1].Mode != "two-way" {
		t.Errorf("unexpected order: %s, %s", entries[0].Mode, entries[1].Mode)
	}
	if entries[0].Failed != 1 || entries[0].FailedIDs != "abc" {
		t.Errorf("failure info not persisted: %+v", entries[0])
	}
	if entries[0].Invalid != 1 {
		t.Errorf("expected invalid count 1, got %d", entries[0].Invalid)
	}
	if entries[1].CreatedOnB != 2 || entries[1].UpdatedOnA != 1 || entries[1].Skipped != 5 {
		t.Errorf("counters not persisted: %+v", entries[1])
	}
	if entries[1].Duration != 120*time.Millisecond {
		t.Errorf("duration not persisted: %v", entries[1].Duration)
	}
	if !entries[1].StartedAt.Equal(first.StartedAt) {
		t.Errorf("started_at round trip failed: %v", entries[1].StartedAt)
	}
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		report := &reconcile.Report{Mode: reconcile.ModeTwoWay, StartedAt: time.Now()}
		if err := s.Record(ctx, report); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected limit respected, got %d entries", len(entries))
	}
}

func TestLastRunEmpty(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil on empty log, got %+v", last)
	}
}

func TestReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Record(ctx, &reconcile.Report{Mode: reconcile.ModeBToA, StartedAt: time.Now()}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	last, err := s2.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last == nil || last.Mode != "b-to-a" {
		t.Errorf("run not persisted across reopen: %+v", last)
	}
}
