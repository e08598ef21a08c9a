package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"duplicate event acks", NewError("dup").Mark(ErrDuplicateEvent), http.StatusOK},
		{"reconciliation acks", NewError("lost credit").Mark(ErrReconciliationRequired), http.StatusOK},
		{"validation", NewError("bad input").Mark(ErrValidation), http.StatusBadRequest},
		{"not found", NewError("missing").Mark(ErrNotFound), http.StatusNotFound},
		{"pending change conflicts", NewError("in flight").Mark(ErrPendingChangeExists), http.StatusConflict},
		{"declined charge", NewError("declined").Mark(ErrPaymentRequired), http.StatusPaymentRequired},
		{"throttled", NewError("rate limit exceeded").Mark(ErrRateLimitExceeded), http.StatusTooManyRequests},
		{"capacity", NewError("full").Mark(ErrCapacityExceeded), http.StatusUnprocessableEntity},
		{"internal", NewError("boom").Mark(ErrInternal), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusFromErr(tc.err))
		})
	}
}
