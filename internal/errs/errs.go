// Package errs carries the abstract error-kind taxonomy used throughout the
// core so handlers can branch on "what kind of failure" without depending on
// a specific subsystem's error type.
package errs

import (
	"errors"
	"fmt"
)

// Code is one of the abstract error kinds from the design's error model.
type Code int

const (
	Unknown Code = iota
	NotFound
	PermissionDenied
	Unavailable
	Unimplemented
	InvalidArgument
	OutOfRange
	FailedPrecondition
	DeadlineExceeded
	Cancelled
	ResourceExhausted
	DataLoss
	Aborted
	Internal
)

func (c Code) String() string {
	switch c {
	case NotFound:
		return "not_found"
	case PermissionDenied:
		return "permission_denied"
	case Unavailable:
		return "unavailable"
	case Unimplemented:
		return "unimplemented"
	case InvalidArgument:
		return "invalid_argument"
	case OutOfRange:
		return "out_of_range"
	case FailedPrecondition:
		return "failed_precondition"
	case DeadlineExceeded:
		return "deadline_exceeded"
	case Cancelled:
		return "cancelled"
	case ResourceExhausted:
		return "resource_exhausted"
	case DataLoss:
		return "data_loss"
	case Aborted:
		return "aborted"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error pairs a Code with an underlying cause and optional identifying
// context (e.g. track id, controller id) for log messages.
type Error struct {
	Code    Code
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given kind and context.
func New(code Code, context string, err error) *Error {
	return &Error{Code: code, Context: context, Err: err}
}

// Wrap annotates err with a kind if it isn't already a classified *Error.
func Wrap(code Code, context string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return New(code, context, err)
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
