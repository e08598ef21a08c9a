package draw

import (
	"context"

	"github.com/drawcard/drawcard/internal/types"
)

// Repository defines the interface for draw persistence operations.
type Repository interface {
	// Create creates a new draw
	Create(ctx context.Context, draw *Draw) error

	// Get retrieves a draw by ID
	Get(ctx context.Context, id string) (*Draw, error)

	// List returns draws matching the filter, newest first.
	List(ctx context.Context, filter *Filter) ([]*Draw, error)

	// UpdateStatus moves the draw to a new lifecycle state. The caller is
	// responsible for checking the transition is legal.
	UpdateStatus(ctx context.Context, id string, status types.DrawStatus) error

	// CreditEntries atomically adds entries to the draw total and the
	// account's participation row. The increment is applied conditionally at
	// the storage layer: it fails with ErrInvalidState when the draw is not
	// active and with ErrCapacityExceeded when a mini draw would pass its
	// threshold, so concurrent credits cannot overshoot.
	CreditEntries(ctx context.Context, drawID, accountID string, entries int64) error

	// RecordWinner writes the winner exactly once (conditional update on the
	// winner being absent) and forces status to completed. A second call
	// fails with ErrAlreadyDecided.
	RecordWinner(ctx context.Context, drawID string, winner *Winner) error

	// GetParticipation returns one account's entry count in a draw, or nil
	// when the account holds no entries.
	GetParticipation(ctx context.Context, drawID, accountID string) (*Participation, error)

	// ListParticipants returns every participation row for a draw, ordered by
	// entry count descending.
	ListParticipants(ctx context.Context, drawID string) ([]*Participation, error)

	// FindActiveMiniDraw returns the currently active mini draw, or nil when
	// none is running.
	FindActiveMiniDraw(ctx context.Context) (*Draw, error)
}

// Filter defines query parameters for listing draws.
type Filter struct {
	DrawIDs  []string
	Types    []types.DrawType
	Statuses []types.DrawStatus
	Limit    int
	Offset   int
}
