package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/festakit/validation"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadySigned      = errors.New("contract already signed")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidTransition  = errors.New("invalid signing step")
	ErrStorage            = errors.New("storage failure")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetInvalid       = errors.New("reset token invalid or expired")
)

// ValidationError is returned for rejected input. Message is ready to show
// to the user; Violations carries per-field codes when the input was a form.
type ValidationError struct {
	Message    string
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

func newValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// PersistenceError wraps a store failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
