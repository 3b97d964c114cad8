// Package apperr holds the error kinds returned by the domain packages and their HTTP mapping.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindValidation         Kind = "validation"
	KindConflict           Kind = "conflict"
	KindCapacityExceeded   Kind = "capacity_exceeded"
	KindPreconditionFailed Kind = "precondition_failed"
	KindTooManyRequests    Kind = "too_many_requests"
	KindInternal           Kind = "internal"
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindCapacityExceeded:
		return http.StatusConflict
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Error is a domain error. Message is safe to show to the caller, Metadata is merged into the response body.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]any
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func (e *Error) With(key string, value any) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

func New(kind Kind, format string, a ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
	}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func NotFound(format string, a ...any) *Error {
	return New(KindNotFound, format, a...)
}

func Forbidden(format string, a ...any) *Error {
	return New(KindForbidden, format, a...)
}

func Validation(format string, a ...any) *Error {
	return New(KindValidation, format, a...)
}

func Conflict(format string, a ...any) *Error {
	return New(KindConflict, format, a...)
}

func CapacityExceeded(format string, a ...any) *Error {
	return New(KindCapacityExceeded, format, a...)
}

func PreconditionFailed(format string, a ...any) *Error {
	return New(KindPreconditionFailed, format, a...)
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// From returns the *Error in err's chain. Missing rows become NotFound, everything else Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(KindNotFound, "not found", err)
	}
	return Wrap(KindInternal, "internal server error", err)
}

// NotFoundOr turns a missing row into a NotFound with the given message and passes other errors through.
func NotFoundOr(err error, format string, a ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{
			Kind:    KindNotFound,
			Message: fmt.Sprintf(format, a...),
			Cause:   err,
		}
	}
	return err
}
