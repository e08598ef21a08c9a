package subscription

import (
	"context"
)

// Repository defines the interface for subscription persistence operations.
type Repository interface {
	// Create creates a new subscription
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by ID
	Get(ctx context.Context, id string) (*Subscription, error)

	// GetByAccount retrieves the account's current subscription, or nil when
	// the account has none.
	GetByAccount(ctx context.Context, accountID string) (*Subscription, error)

	// Update persists the full subscription state.
	Update(ctx context.Context, sub *Subscription) error
}
