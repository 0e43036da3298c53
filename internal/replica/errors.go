package replica

import "errors"

// Common errors returned by replica operations.
//
// These can be checked with errors.Is() even when wrapped:
//
//	if errors.Is(err, replica.ErrNotFound) {
//	    // update targeted a record absent upstream
//	}
var (
	// ErrNotFound is returned by Update when the record id does not
	// exist in the replica. Retrying will not help.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord is returned when a record fails validation
	// before it reaches storage.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnavailable is returned when the replica cannot be reached
	// at all (endpoint down, sandbox not running).
	ErrUnavailable = errors.New("replica unavailable")
)

// IsRetryable reports whether the error is likely to succeed on retry.
// Not-found and validation failures are permanent; everything else is
// treated as transient (timeouts, connection resets, lock contention).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, ErrInvalidRecord) {
		return false
	}
	return true
}
