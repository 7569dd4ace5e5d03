// Package apperror defines the error kinds every service reports and the
// HTTP layer maps to status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound          = errors.New("not_found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrSequenceExhausted = errors.New("sequence_exhausted")
	ErrInvalidInput      = errors.New("invalid_input")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

// Error is a coded error of a given kind. Field is set for input errors.
type Error struct {
	Kind    error
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return New(ErrNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(ErrConflict, code, message)
}

func Forbidden(code, message string) *Error {
	return New(ErrForbidden, code, message)
}

func Unauthenticated(code, message string) *Error {
	return New(ErrUnauthenticated, code, message)
}

func Invalid(field, code, message string) *Error {
	return &Error{Kind: ErrInvalidInput, Code: code, Field: field, Message: message}
}

// Exhausted builds a sequence-exhaustion error describing the probed window.
func Exhausted(start int64, attempts int) *Error {
	return New(ErrSequenceExhausted, "sequence_exhausted",
		fmt.Sprintf("no free invoice number in %d candidates starting at %d", attempts, start))
}

// As extracts the coded error from a chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind sentinel of err, or nil for uncategorised errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrForbidden, ErrSequenceExhausted, ErrInvalidInput, ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
