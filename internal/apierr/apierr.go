// Package apierr defines typed error kinds shared across the backend so
// that an eventual external HTTP layer can classify them with errors.Is/As
// without this module importing any HTTP types.
package apierr

import "errors"

// Kind identifies which class of error occurred, per the error-handling
// design's response-code mapping (invalid input -> 400, deadline -> 504,
// internal bug -> 500). Upstream vendor failures and data insufficiency
// are not represented here: they resolve to empty results with a
// diagnostic breadcrumb rather than an error value.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindForbidden
	KindDeadlineExceeded
	KindInternal
)

// Error wraps an underlying cause with a Kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// InvalidInput builds a 400-class error: bad date format, an out-of-
// whitelist days parameter, top_n <= 0, or a target date outside the
// available data range.
func InvalidInput(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg, Cause: cause}
}

// Forbidden builds a 403-class error for admin-only routes and
// cross-user recommendation history access.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// DeadlineExceeded builds a 504-class error for long-running operations
// that should be retried with a narrower date span or smaller top_n.
func DeadlineExceeded(msg string, cause error) *Error {
	return &Error{Kind: KindDeadlineExceeded, Message: msg, Cause: cause}
}

// Internal builds a 500-class error for uncaught internal failures.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
