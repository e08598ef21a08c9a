package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the concrete error carried through the service layers. It
// wraps a cause, an operator hint, and structured details safe to report back
// to API callers.
type InternalError struct {
	cause             error
	hint              string
	reportableDetails map[string]interface{}
	mark              error
}

func (e *InternalError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

// Unwrap exposes the cause chain for errors.Is / errors.As.
func (e *InternalError) Unwrap() error {
	return e.cause
}

// Is matches either the marker or anything in the cause chain.
func (e *InternalError) Is(target error) bool {
	if e.mark != nil && errors.Is(e.mark, target) {
		return true
	}
	return errors.Is(e.cause, target)
}

// Hint returns the operator/user facing hint, if any.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns structured details safe to surface to callers.
func (e *InternalError) ReportableDetails() map[string]interface{} {
	return e.reportableDetails
}

// Mark returns the taxonomy marker this error was tagged with.
func (e *InternalError) Mark() error {
	return e.mark
}

// ErrorBuilder provides the fluent construction API used across services:
//
//	ierr.NewError("draw is not active").
//		WithHint("Entries can only be credited while the draw is active").
//		WithReportableDetails(map[string]interface{}{"draw_id": id}).
//		Mark(ierr.ErrInvalidState)
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder from a plain message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: errors.New(msg)},
	}
}

// NewErrorf starts a builder from a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return NewError(fmt.Sprintf(format, args...))
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &ErrorBuilder{
		err: &InternalError{cause: err},
	}
}

// WithHint attaches a human-readable hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted human-readable hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details that are safe to return
// to API callers.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark finalises the builder, tagging the error with a taxonomy marker.
func (b *ErrorBuilder) Mark(mark error) error {
	b.err.mark = mark
	return b.err
}
