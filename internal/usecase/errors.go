package usecase

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, client-visible classification of a failed
// operation.
type ErrorCode string

const (
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorInvalidQuestion ErrorCode = "INVALID_QUESTION"
	ErrorRateLimited     ErrorCode = "RATE_LIMITED"
	ErrorUpstream        ErrorCode = "UPSTREAM_ERROR"
	ErrorUnavailable     ErrorCode = "UNAVAILABLE"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by every service operation that cannot produce a
// result. Form validation failures are results, not errors. Reason is a
// snake_case detail for logs and is never shown to visitors.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the same request may succeed later.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case ErrorRateLimited, ErrorUpstream, ErrorUnavailable:
		return true
	}
	return false
}

// AsError extracts the *Error carried by err. Anything else is reported as
// an internal error with reason "unexpected".
func AsError(err error) *Error {
	var usecaseErr *Error
	if errors.As(err, &usecaseErr) {
		return usecaseErr
	}
	return &Error{Code: ErrorInternal, Reason: "unexpected", Err: err}
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
