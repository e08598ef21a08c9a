package account

import (
	"context"

	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for account persistence operations.
// Balance mutations are expressed as storage-level increments and appends,
// never read-modify-write, so concurrent events for one account cannot lose
// an update.
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// Get retrieves an account by ID
	Get(ctx context.Context, id string) (*Account, error)

	// IncrementBalances atomically adds entries and points to the account's
	// wallets.
	IncrementBalances(ctx context.Context, id string, entries int64, points decimal.Decimal) error

	// AppendPurchase atomically appends a purchase record to the history list
	// matching its package type.
	AppendPurchase(ctx context.Context, id string, record PurchaseRecord) error

	// SetSubscriptionID links or clears (empty string) the current
	// subscription on the account.
	SetSubscriptionID(ctx context.Context, id string, subscriptionID string) error

	// List returns accounts for admin listing.
	List(ctx context.Context, filter *Filter) ([]*Account, error)
}

// Filter defines query parameters for listing accounts.
type Filter struct {
	AccountIDs []string
	Statuses   []types.Status
	Limit      int
	Offset     int
}
