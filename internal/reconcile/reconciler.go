package reconcile

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
)

// Options configures a Reconciler.
type Options struct {
	// Retry bounds per-operation retries during apply.
	Retry RetryPolicy

	// Logger for run activity. Nil means a default stderr logger.
	Logger *log.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Retry:  DefaultRetryPolicy(),
		Logger: log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Reconciler converges two replicas of the todo collection.
type Reconciler struct {
	a, b   replica.Accessor
	retry  RetryPolicy
	logger *log.Logger
}

// New creates a Reconciler over the two replicas. Side A is listed
// first and is conventionally the local side. If opts is nil, defaults
// are used.
//
// Example:
//
//	rec := reconcile.New(localStore, remoteClient, nil)
//	report, err := rec.Run(ctx, reconcile.ModeTwoWay)
func New(a, b replica.Accessor, opts *Options) *Reconciler {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Reconciler{
		a:      a,
		b:      b,
		retry:  opts.Retry,
		logger: logger,
	}
}

// Plan lists both replicas and computes the restricted plan without
// writing anything. Used by dry runs and status display.
//
// A failed list aborts immediately: no plan is produced from incomplete
// data.
func (r *Reconciler) Plan(ctx context.Context, mode Mode) (*Plan, error) {
	sideA, err := r.a.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s failed: %w", r.a.Name(), err)
	}
	sideB, err := r.b.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s failed: %w", r.b.Name(), err)
	}

	return Diff(sideA, sideB).Restrict(mode), nil
}

// Run performs one full sync: list both sides, diff, restrict by mode,
// apply. Read failures are fatal and produce zero writes; per-record
// write failures are collected in the report and never abort the run.
func (r *Reconciler) Run(ctx context.Context, mode Mode) (*Report, error) {
	started := time.Now()
	r.logger.Printf("Starting %s sync: %s <-> %s", mode, r.a.Name(), r.b.Name())

	plan, err := r.Plan(ctx, mode)
	if err != nil {
		return nil, err
	}

	report := Apply(ctx, plan, r.a, r.b, r.retry, r.logger)
	report.Mode = mode
	report.StartedAt = started
	report.Duration = time.Since(started)

	r.logger.Printf("Sync complete in %v: %d writes, %d skipped, %d failed",
		report.Duration.Round(time.Millisecond), report.Writes(), report.SkippedEqual, report.Failed())

	if report.Aborted {
		return report, ctx.Err()
	}
	return report, nil
}
