package promotion

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/types"
)

// Repository defines the interface for promotion persistence operations.
type Repository interface {
	// Create creates a new promotion
	Create(ctx context.Context, promo *Promotion) error

	// Get retrieves a promotion by ID
	Get(ctx context.Context, id string) (*Promotion, error)

	// GetActiveForCategory returns the promotion active for the category at
	// the given instant, or nil when there is none. At most one promotion per
	// category runs at a time.
	GetActiveForCategory(ctx context.Context, category types.PackageType, at time.Time) (*Promotion, error)
}
