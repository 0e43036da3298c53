package todo

import (
	"testing"
	"time"
)

func TestNewRecord(t *testing.T) {
	r := New("buy milk")

	if r.ID == "" {
		t.Error("expected generated id")
	}
	if r.Content != "buy milk" {
		t.Errorf("expected content %q, got %q", "buy milk", r.Content)
	}
	if r.Completed {
		t.Error("new record should not be completed")
	}
	if !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Error("created_at and updated_at should match at creation")
	}
	if err := r.Validate(); err != nil {
		t.Errorf("new record should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{"valid", Record{ID: "a", CreatedAt: now, UpdatedAt: now}, false},
		{"missing id", Record{CreatedAt: now, UpdatedAt: now}, true},
		{"missing created_at", Record{ID: "a", UpdatedAt: now}, true},
		{"missing updated_at", Record{ID: "a", CreatedAt: now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewerThan(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &Record{ID: "1", UpdatedAt: base}
	newer := &Record{ID: "1", UpdatedAt: base.Add(time.Second)}

	if !newer.NewerThan(older) {
		t.Error("record with later updated_at should be newer")
	}
	if older.NewerThan(newer) {
		t.Error("record with earlier updated_at should not be newer")
	}

	// Equal timestamps never count as newer, even with different content.
	a := &Record{ID: "1", Content: "x", UpdatedAt: base}
	b := &Record{ID: "1", Content: "y", UpdatedAt: base}
	if a.NewerThan(b) || b.NewerThan(a) {
		t.Error("equal timestamps must not produce a winner")
	}

	// Sub-millisecond differences are ties by policy.
	c := &Record{ID: "1", UpdatedAt: base.Add(100 * time.Microsecond)}
	if c.NewerThan(a) {
		t.Error("sub-millisecond difference should compare equal")
	}
}

func TestTouch(t *testing.T) {
	r := New("task")
	before := r.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	r.Touch()

	if !r.UpdatedAt.After(before) {
		t.Error("Touch should advance updated_at")
	}
}

func TestClone(t *testing.T) {
	r := New("original")
	c := r.Clone()

	c.Content = "changed"
	if r.Content != "original" {
		t.Error("mutating the clone should not affect the original")
	}
}

func TestSetDefaults(t *testing.T) {
	r := &Record{ID: "x", Content: "late import"}
	r.SetDefaults()

	if r.CreatedAt.IsZero() {
		t.Error("SetDefaults should fill created_at")
	}
	if !r.UpdatedAt.Equal(r.CreatedAt) {
		t.Error("SetDefaults should mirror created_at into updated_at")
	}
}
