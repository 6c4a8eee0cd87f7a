package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidOrigin indicates an origin tag outside transcript/metadata/document.
var ErrInvalidOrigin = errors.New("invalid origin")

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
