package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Failure records one operation that exhausted its retries.
type Failure struct {
	ID     string
	Target Target
	Kind   OpKind
	Reason string
}

// Report is the outcome summary of one sync run.
type Report struct {
	Mode      Mode
	StartedAt time.Time
	Duration  time.Duration

	CreatedOnA int
	CreatedOnB int
	UpdatedOnA int
	UpdatedOnB int

	// SkippedEqual counts already-synchronized ids; SkippedInvalid
	// lists ids excluded for unusable timestamps.
	SkippedEqual   int
	SkippedInvalid []string

	Failures []Failure

	// Aborted is set when cancellation stopped the run before every
	// planned operation executed.
	Aborted bool
}

// Writes returns the number of successful write operations.
func (r *Report) Writes() int {
	return r.CreatedOnA + r.CreatedOnB + r.UpdatedOnA + r.UpdatedOnB
}

// Failed returns the number of per-record failures.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Clean reports whether the run completed with no failures.
func (r *Report) Clean() bool {
	return !r.Aborted && len(r.Failures) == 0
}

// Summary renders the plain-text summary: one line per category plus
// one line per failed record with id and reason.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Created: %d on A, %d on B\n", r.CreatedOnA, r.CreatedOnB)
	fmt.Fprintf(&b, "Updated: %d on A, %d on B\n", r.UpdatedOnA, r.UpdatedOnB)
	fmt.Fprintf(&b, "Skipped: %d in sync, %d invalid\n", r.SkippedEqual, len(r.SkippedInvalid))
	fmt.Fprintf(&b, "Failed: %d\n", len(r.Failures))

	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  %s %s on %s failed: %s\n", f.Kind, f.ID, f.Target, f.Reason)
	}
	if r.Aborted {
		b.WriteString("Run aborted before completion\n")
	}

	return b.String()
}
