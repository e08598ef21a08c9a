package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorDetail is the wire shape of a single error.
type ErrorDetail struct {
	Message  string                 `json:"message"`
	Hint     string                 `json:"hint,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Internal string                 `json:"internal_error,omitempty"`
}

// ErrorResponse is the canonical JSON error envelope returned by the API.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the API envelope for an error.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: messageForMark(err),
		},
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		resp.Error.Hint = ie.Hint()
		resp.Error.Details = ie.ReportableDetails()
		resp.Error.Internal = ie.Error()
	} else if err != nil {
		resp.Error.Internal = err.Error()
	}

	return resp
}

// HTTPStatusFromErr maps taxonomy markers to HTTP status codes.
// DuplicateEvent intentionally maps to 200: the gateway must stop retrying.
// ReconciliationRequired also maps to 200 for the same reason; it is alerted
// out-of-band instead of being retried into the ledger's duplicate check.
func HTTPStatusFromErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrDuplicateEvent):
		return http.StatusOK
	case errors.Is(err, ErrReconciliationRequired):
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidDowngrade),
		errors.Is(err, ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotAParticipant):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrAlreadyDecided),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrPendingChangeExists):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageForMark(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateEvent):
		return "event already processed"
	case errors.Is(err, ErrValidation):
		return "request validation failed"
	case errors.Is(err, ErrNotFound):
		return "requested resource was not found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission denied"
	case errors.Is(err, ErrRateLimitExceeded):
		return "too many requests"
	default:
		return "operation failed"
	}
}
