package errors

import (
	"github.com/cockroachdb/errors"
)

// Marker errors. Every error leaving this package is marked with exactly one
// of these so callers can branch with errors.Is without depending on the
// concrete error type.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("item_not_found")
	ErrAlreadyExists    = errors.New("item_already_exists")
	ErrDatabase         = errors.New("database_error")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrHTTPClient       = errors.New("http_client_error")
	ErrInternal         = errors.New("internal_error")

	// Benefit-granting taxonomy.
	ErrDuplicateEvent         = errors.New("duplicate_event")
	ErrInvalidState           = errors.New("invalid_state")
	ErrCapacityExceeded       = errors.New("capacity_exceeded")
	ErrAlreadyDecided         = errors.New("already_decided")
	ErrNotAParticipant        = errors.New("not_a_participant")
	ErrOutOfRange             = errors.New("out_of_range")
	ErrPendingChangeExists    = errors.New("pending_change_exists")
	ErrInvalidDowngrade       = errors.New("invalid_downgrade")
	ErrPaymentRequired        = errors.New("payment_required")
	ErrRateLimitExceeded      = errors.New("rate_limit_exceeded")
	ErrReconciliationRequired = errors.New("reconciliation_required")
)

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDatabase checks if the error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsDuplicateEvent checks if the error marks an already-processed payment
// event. Callers must treat this as a successful no-op, not a failure.
func IsDuplicateEvent(err error) bool {
	return errors.Is(err, ErrDuplicateEvent)
}

// IsInvalidState checks if the error is an invalid state error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsReconciliationRequired checks if the error marks an admitted event whose
// downstream credits failed. This is the one fatal, must-alert case: the
// ledger will silently swallow any retry of the same event.
func IsReconciliationRequired(err error) bool {
	return errors.Is(err, ErrReconciliationRequired)
}
