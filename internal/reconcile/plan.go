package reconcile

import (
	"fmt"

	"github.com/kestrel-tools/todosync/internal/todo"
)

// Target identifies which replica an operation writes to.
type Target int

const (
	// TargetA is the first replica passed to the reconciler
	// (conventionally the local side).
	TargetA Target = iota
	// TargetB is the second replica (conventionally the remote side).
	TargetB
)

// String returns a human-readable representation of the target.
func (t Target) String() string {
	switch t {
	case TargetA:
		return "A"
	case TargetB:
		return "B"
	default:
		return "unknown"
	}
}

// OpKind is the type of write an operation performs.
type OpKind int

const (
	// OpCreate inserts a record that is missing from the target.
	OpCreate OpKind = iota
	// OpUpdate overwrites a stale record on the target.
	OpUpdate
)

// String returns a human-readable representation of the kind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Op is one planned write: put Record onto Target.
type Op struct {
	Target Target
	Kind   OpKind
	Record *todo.Record
}

// Plan is the ordered list of operations produced by Diff, plus the ids
// that were deliberately not planned. A Plan has no side effects until
// handed to Apply.
type Plan struct {
	Ops []Op

	// SkippedEqual counts ids present on both sides with identical
	// updated_at (already synchronized).
	SkippedEqual int

	// SkippedInvalid lists ids excluded because a record carried no
	// usable updated_at.
	SkippedInvalid []string
}

// Empty reports whether the plan contains no operations.
func (p *Plan) Empty() bool {
	return len(p.Ops) == 0
}

// Mode restricts which planned operations are kept for a run.
type Mode int

const (
	// ModeTwoWay keeps all operations.
	ModeTwoWay Mode = iota
	// ModeAToB keeps only operations targeting B.
	ModeAToB
	// ModeBToA keeps only operations targeting A.
	ModeBToA
)

// String returns the canonical spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTwoWay:
		return "two-way"
	case ModeAToB:
		return "a-to-b"
	case ModeBToA:
		return "b-to-a"
	default:
		return "unknown"
	}
}

// ParseMode parses the canonical mode spellings.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "two-way":
		return ModeTwoWay, nil
	case "a-to-b":
		return ModeAToB, nil
	case "b-to-a":
		return ModeBToA, nil
	default:
		return 0, fmt.Errorf("unknown sync mode %q (want two-way, a-to-b, or b-to-a)", s)
	}
}

// Restrict returns a copy of the plan containing only the operations
// the mode allows. Skip counters carry over unchanged.
func (p *Plan) Restrict(mode Mode) *Plan {
	if mode == ModeTwoWay {
		return p
	}

	keep := TargetB
	if mode == ModeBToA {
		keep = TargetA
	}

	out := &Plan{
		SkippedEqual:   p.SkippedEqual,
		SkippedInvalid: p.SkippedInvalid,
	}
	for _, op := range p.Ops {
		if op.Target == keep {
			out.Ops = append(out.Ops, op)
		}
	}
	return out
}
