package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound the target does not exist or is not owned by the caller.
// The two cases are never distinguished.
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable the persistence layer failed or could not be reached
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrUnauthorized the caller has no valid identity
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError malformed input; Field names the offending input when known
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a *ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation reports whether err carries a *ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
