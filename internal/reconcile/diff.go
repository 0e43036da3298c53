package reconcile

import (
	"sort"

	"github.com/kestrel-tools/todosync/internal/todo"
)

// Diff classifies every record id across the two snapshots and returns
// the Plan that would converge them under last-writer-wins.
//
// Classification per id:
//
//	only on A                    -> create on B from A's record
//	only on B                    -> create on A from B's record
//	both, A.updated_at newer     -> update B with A's record
//	both, B.updated_at newer     -> update A with B's record
//	both, equal updated_at       -> no operation (even if fields differ)
//
// Timestamps compare at millisecond precision with strict greater-than;
// updated_at is the single source of truth and field-level differences
// are never inspected. Any id whose record (on either side) lacks a
// usable updated_at is excluded and listed in SkippedInvalid.
//
// Diff is a pure function of the two snapshots: no side effects, and
// operations are emitted in sorted id order so output is deterministic.
func Diff(sideA, sideB []*todo.Record) *Plan {
	byA := indexByID(sideA)
	byB := indexByID(sideB)

	ids := make([]string, 0, len(byA)+len(byB))
	seen := make(map[string]bool, len(byA)+len(byB))
	for id := range byA {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range byB {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	plan := &Plan{}
	for _, id := range ids {
		a, onA := byA[id]
		b, onB := byB[id]

		// Never guess a timestamp: a record without a usable clock
		// disqualifies its id from this run entirely.
		if (onA && !a.HasValidClock()) || (onB && !b.HasValidClock()) {
			plan.SkippedInvalid = append(plan.SkippedInvalid, id)
			continue
		}

		switch {
		case onA && !onB:
			plan.Ops = append(plan.Ops, Op{Target: TargetB, Kind: OpCreate, Record: a})
		case onB && !onA:
			plan.Ops = append(plan.Ops, Op{Target: TargetA, Kind: OpCreate, Record: b})
		case a.NewerThan(b):
			plan.Ops = append(plan.Ops, Op{Target: TargetB, Kind: OpUpdate, Record: a})
		case b.NewerThan(a):
			plan.Ops = append(plan.Ops, Op{Target: TargetA, Kind: OpUpdate, Record: b})
		default:
			plan.SkippedEqual++
		}
	}

	return plan
}

// indexByID builds the id -> record mapping for one side. If a snapshot
// violates the unique-id invariant, the record with the newer clock wins
// the slot.
func indexByID(records []*todo.Record) map[string]*todo.Record {
	m := make(map[string]*todo.Record, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			continue
		}
		if prev, ok := m[r.ID]; ok && !r.NewerThan(prev) {
			continue
		}
		m[r.ID] = r
	}
	return m
}
