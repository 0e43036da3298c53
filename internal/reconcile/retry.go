package reconcile

import (
	"context"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
)

// RetryPolicy bounds how stubbornly Apply pushes a single operation.
type RetryPolicy struct {
	// Attempts is the maximum number of tries per operation.
	Attempts int

	// Backoff is the base delay between tries; the wait grows
	// linearly (1x, 2x, ...) with each failed attempt.
	Backoff time.Duration

	// CallTimeout bounds each individual accessor call.
	// Zero means no per-call deadline beyond the run context.
	CallTimeout time.Duration
}

// DefaultRetryPolicy matches the observed behavior of the original
// tooling: three attempts roughly a second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:    3,
		Backoff:     time.Second,
		CallTimeout: 10 * time.Second,
	}
}

// normalized returns the policy with zero values replaced by defaults.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryPolicy().Attempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// withRetry runs fn up to p.Attempts times, sleeping between tries.
// Permanent errors (not-found, invalid record) and context cancellation
// stop retrying immediately; the last error is returned.
func withRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	p = p.normalized()

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		err = fn(callCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		if !replica.IsRetryable(err) {
			return err
		}
		if attempt == p.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * p.Backoff):
		}
	}
	return err
}
