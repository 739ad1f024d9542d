package offline

import "context"

// Record is the minimal shape the sync layer needs from an entity: its
// identifier and its current synchronization state. Domain types implement it
// directly; the sync layer never inspects domain fields.
type Record interface {
	RecordID() int64
	RecordStatus() Status
}

// Store is the local persistence contract for one entity kind. Reads never
// fail for "not found"; absence is the boolean. Implementations wrap every
// failure in StorageError, which the repository treats as fatal for the
// operation that hit it.
type Store[R Record] interface {
	GetAll(ctx context.Context) ([]R, error)
	GetByID(ctx context.Context, id int64) (R, bool, error)
	Insert(ctx context.Context, rec R, status Status) error
	Update(ctx context.Context, rec R, status Status) error

	// MarkForDeletion flips the row to PendingDelete without removing it, so
	// the deletion intent survives until the backend confirms it.
	MarkForDeletion(ctx context.Context, id int64) error

	// Delete physically removes the row, including any join-table rows owned
	// by it.
	Delete(ctx context.Context, id int64) error

	// GetToSync returns every row whose status is not Synced. Returned
	// records carry their status so callers can dispatch on it.
	GetToSync(ctx context.Context) ([]R, error)

	UpdateSyncStatus(ctx context.Context, id int64, status Status) error
}

// Remote is the backend API contract for one entity kind. Implementations
// classify failures into the error taxonomy of this package: transport
// failures as ErrConnectivity, non-success responses as ErrServer, malformed
// bodies as ErrUnexpected. Get reports absence through the boolean, and
// Delete treats a 404 as success since the goal state is already reached.
type Remote[R Record, Req any] interface {
	List(ctx context.Context) ([]R, error)
	Get(ctx context.Context, id int64) (R, bool, error)
	Create(ctx context.Context, req Req) (R, error)
	Update(ctx context.Context, id int64, req Req) (R, error)
	Delete(ctx context.Context, id int64) error
}

// Connectivity is the network monitor view a repository snapshots before each
// operation.
type Connectivity interface {
	Online() bool
}

// Synchronizer is the view of an entity repository the manager drives.
type Synchronizer interface {
	Kind() string
	Synchronize(ctx context.Context) bool
	HasPending(ctx context.Context) (bool, error)
	PendingCount(ctx context.Context) (int, error)
}
