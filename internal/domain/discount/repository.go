package discount

import (
	"context"
	"time"
)

// Repository defines the interface for discount grant persistence operations.
type Repository interface {
	// Enqueue inserts the grant with the next queue position for its account.
	// Position assignment is serialised at the storage layer; enqueueing is
	// always permitted and never rejected.
	Enqueue(ctx context.Context, grant *Grant) error

	// Get retrieves a grant by ID
	Get(ctx context.Context, id string) (*Grant, error)

	// ListByAccount returns all grants for an account in ascending queue
	// position order.
	ListByAccount(ctx context.Context, accountID string) ([]*Grant, error)

	// Activate populates the activation window on a grant, conditionally on
	// the window still being absent. Returns activated=false when another
	// reader already activated it.
	Activate(ctx context.Context, id string, start, end time.Time) (activated bool, err error)
}
