package ledger

import (
	"context"

	"github.com/drawcard/drawcard/internal/types"
)

// Repository defines the interface for event ledger persistence operations
type Repository interface {
	// Admit inserts the event into the uniquely-keyed ledger. It returns
	// admitted=false, with no error, when the (transaction_id, event_kind)
	// pair already exists: the caller must treat that as a successful no-op.
	// This insert is the only synchronization primitive guarding benefit
	// mutation; it must behave correctly across independent processes.
	Admit(ctx context.Context, event *ProcessedEvent) (admitted bool, err error)

	// Get retrieves a ledger row by its unique key.
	Get(ctx context.Context, transactionID string, eventKind types.PaymentEventKind) (*ProcessedEvent, error)

	// ListByAccount returns the processed events for an account, newest first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*ProcessedEvent, error)
}
