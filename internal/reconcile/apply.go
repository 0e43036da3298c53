package reconcile

import (
	"context"
	"log"

	"github.com/kestrel-tools/todosync/internal/replica"
)

// Apply executes the plan against the two accessors and returns the
// Report of what happened.
//
// Operations run strictly sequentially, in plan order: no concurrent
// writers within one run, which keeps retry semantics simple and avoids
// hammering either backend. Each operation gets bounded retries on
// transient failure; a record that still fails is recorded and the loop
// moves on. Cancellation is checked between operations and stops further
// writes while preserving the report accumulated so far.
func Apply(ctx context.Context, plan *Plan, a, b replica.Accessor, policy RetryPolicy, logger *log.Logger) *Report {
	report := &Report{
		SkippedEqual:   plan.SkippedEqual,
		SkippedInvalid: plan.SkippedInvalid,
	}

	for _, op := range plan.Ops {
		if ctx.Err() != nil {
			report.Aborted = true
			break
		}

		target := a
		if op.Target == TargetB {
			target = b
		}

		err := withRetry(ctx, policy, func(callCtx context.Context) error {
			var callErr error
			switch op.Kind {
			case OpCreate:
				_, callErr = target.Create(callCtx, op.Record)
			case OpUpdate:
				_, callErr = target.Update(callCtx, op.Record)
			}
			return callErr
		})

		if err != nil {
			if logger != nil {
				logger.Printf("WARNING: %s %s on %s failed: %v", op.Kind, op.Record.ID, target.Name(), err)
			}
			report.Failures = append(report.Failures, Failure{
				ID:     op.Record.ID,
				Target: op.Target,
				Kind:   op.Kind,
				Reason: err.Error(),
			})
			continue
		}

		switch {
		case op.Target == TargetA && op.Kind == OpCreate:
			report.CreatedOnA++
		case op.Target == TargetB && op.Kind == OpCreate:
			report.CreatedOnB++
		case op.Target == TargetA && op.Kind == OpUpdate:
			report.UpdatedOnA++
		case op.Target == TargetB && op.Kind == OpUpdate:
			report.UpdatedOnB++
		}
	}

	return report
}
