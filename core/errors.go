package core

import "github.com/pkg/errors"

// FieldError attaches a message to a single input field, keyed by the
// field's wire name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries a request-level validation failure, optionally
// broken down per field. The API layer renders it as a 400 with a field map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable integrity problem; the server drains and
// stops when one surfaces from a handler.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
