// Package apperr defines the error taxonomy shared by the store, projection,
// and API layers.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a referenced pack, field, value, or user does not
// exist or has been soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation (duplicate pack identity,
// domain name, or field name).
var ErrConflict = errors.New("already exists")

// ErrForbidden indicates the caller is authenticated but not allowed to
// perform the operation.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports malformed input at an API or projection boundary.
// Its message is safe to surface to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
