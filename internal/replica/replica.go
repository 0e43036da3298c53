// Package replica defines the narrow capability interface every replica
// backend implements, and the error vocabulary shared across backends.
//
// A replica is one side of the synchronized todo collection: a local
// records directory, an embedded SQLite store, a deployed HTTP endpoint,
// or an in-memory double in tests. The reconciler only ever talks to
// replicas through this interface.
package replica

import (
	"context"

	"github.com/kestrel-tools/todosync/internal/todo"
)

// Accessor is the capability contract for one replica.
//
// Implementations must accept client-generated ids on Create, and must
// return ErrNotFound (wrapped is fine) from Update when the id does not
// exist upstream. All methods honor the context for timeout and
// cancellation.
type Accessor interface {
	// List returns a snapshot of every record in the replica.
	List(ctx context.Context) ([]*todo.Record, error)

	// Create stores a new record, keeping its pre-assigned id.
	// Returns the stored record as the replica sees it.
	Create(ctx context.Context, r *todo.Record) (*todo.Record, error)

	// Update overwrites the record with the given id.
	// Returns ErrNotFound if the id is absent upstream.
	Update(ctx context.Context, r *todo.Record) (*todo.Record, error)

	// Name identifies the replica in logs and reports.
	Name() string
}
