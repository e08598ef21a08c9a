package ledger

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
)

// ProcessedEvent is one row of the append-only event ledger. The
// (TransactionID, EventKind) pair is unique; inserting it is the sole
// admission gate for benefit mutation. Rows are never mutated or deleted.
type ProcessedEvent struct {
	ID            string                 `json:"id"`
	TransactionID string                 `json:"transaction_id"`
	EventKind     types.PaymentEventKind `json:"event_kind"`
	AccountID     string                 `json:"account_id"`
	PackageID     string                 `json:"package_id"`
	PackageType   types.PackageType      `json:"package_type"`
	Outcome       map[string]interface{} `json:"outcome,omitempty"`
	ProcessedAt   time.Time              `json:"processed_at"`
	EnvironmentID string                 `json:"environment_id"`
	types.BaseModel
}

// Validate validates the processed event
func (e *ProcessedEvent) Validate() error {
	if e.TransactionID == "" {
		return ierr.NewError("transaction_id is required").Mark(ierr.ErrValidation)
	}
	if e.EventKind == "" {
		return ierr.NewError("event_kind is required").Mark(ierr.ErrValidation)
	}
	if e.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	return nil
}
