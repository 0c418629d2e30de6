// Package apperr defines the stable error kinds surfaced at the request
// boundary. Operations return an *Error carrying one of the kinds below;
// handlers map kinds to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota
	KindInvalidInput
	KindInvalidRange
	KindConflict
	KindPermissionDenied
	KindCancellationWindowClosed
	KindDuplicateReview
	KindIneligibleBooking
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidRange:
		return "invalid_range"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindCancellationWindowClosed:
		return "cancellation_window_closed"
	case KindDuplicateReview:
		return "duplicate_review"
	case KindIneligibleBooking:
		return "ineligible_booking"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// AsError returns the *Error inside err, or nil when err carries none.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// Common constructors for the kinds that appear all over the engines.

func NotFound(what string) *Error {
	return Newf(KindNotFound, "%s not found", what)
}

func PermissionDenied() *Error {
	return New(KindPermissionDenied, "permission denied")
}
