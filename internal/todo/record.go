// Package todo defines the Record type shared by every replica backend.
package todo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the unit of synchronization: one todo item.
// The structure is deliberately flat with last-write-wins semantics.
// UpdatedAt is the sole conflict-resolution signal between replicas;
// CreatedAt is informational and never compared.
type Record struct {
	// ID is the client-generated identifier, immutable once created.
	// It is the join key between replicas.
	ID string `json:"id"`

	// Content is the user-supplied todo text.
	Content string `json:"content"`

	// Completed marks the item done. Defaults to false.
	Completed bool `json:"completed"`

	// Timestamps (RFC3339 on the wire).
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a Record with a fresh UUID and both timestamps set to now.
func New(content string) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks that the Record has valid field values.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if r.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// HasValidClock reports whether the record carries a usable UpdatedAt.
// Records without one are excluded from diffing rather than guessed at.
func (r *Record) HasValidClock() bool {
	return !r.UpdatedAt.IsZero()
}

// Touch sets UpdatedAt to current time.
// Call whenever any field is modified.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// NewerThan reports whether this record's UpdatedAt is strictly greater
// than other's, compared at millisecond precision. Equal timestamps are
// never "newer": ties resolve to no write, regardless of field contents.
func (r *Record) NewerThan(other *Record) bool {
	return r.UpdatedAt.UnixMilli() > other.UpdatedAt.UnixMilli()
}

// Clone returns a copy of the record. Replica implementations hand out
// clones so callers cannot mutate stored state behind the store's back.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// SetDefaults applies default values for optional fields.
func (r *Record) SetDefaults() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
}

// Filename returns the canonical filename for this record: {id}.json
func (r *Record) Filename() string {
	return fmt.Sprintf("%s.json", r.ID)
}
