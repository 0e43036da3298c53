package replica

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kestrel-tools/todosync/internal/todo"
)

// Memory is an in-process Accessor backed by a map.
//
// It is the reference implementation of the Accessor contract and the
// test double used throughout the reconciler tests. The optional
// FailCreate/FailUpdate hooks inject per-record failures so tests can
// exercise the partial-failure path of the apply loop.
type Memory struct {
	name string

	mu      sync.Mutex
	records map[string]*todo.Record

	// FailCreate, if set, is consulted before every Create; returning a
	// non-nil error makes the call fail without touching state.
	FailCreate func(r *todo.Record) error

	// FailUpdate is the Update counterpart of FailCreate.
	FailUpdate func(r *todo.Record) error

	// FailList, if set, makes List fail outright.
	FailList func() error
}

// NewMemory creates an empty in-memory replica with the given name.
func NewMemory(name string) *Memory {
	return &Memory{
		name:    name,
		records: make(map[string]*todo.Record),
	}
}

// Name implements Accessor.
func (m *Memory) Name() string { return m.name }

// List implements Accessor. Records are returned sorted by id so tests
// get deterministic output.
func (m *Memory) List(ctx context.Context) ([]*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailList != nil {
		if err := m.FailList(); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*todo.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create implements Accessor.
func (m *Memory) Create(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if m.FailCreate != nil {
		if err := m.FailCreate(r); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[r.ID] = r.Clone()
	return r.Clone(), nil
}

// Update implements Accessor.
func (m *Memory) Update(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if m.FailUpdate != nil {
		if err := m.FailUpdate(r); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[r.ID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	m.records[r.ID] = r.Clone()
	return r.Clone(), nil
}

// Get returns a record by id, or nil if absent. Test helper.
func (m *Memory) Get(id string) *todo.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return nil
	}
	return r.Clone()
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Seed inserts records directly, bypassing the failure hooks. Test helper.
func (m *Memory) Seed(records ...*todo.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.records[r.ID] = r.Clone()
	}
}
