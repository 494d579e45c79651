package models

import (
	"errors"
	"fmt"
)

// Domain errors shared by the stores, services and HTTP layer.
var (
	// ErrValidation marks malformed input. Handlers answer it with 400.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an unknown identifier. Handlers answer it with 404.
	ErrNotFound = errors.New("not found")
)

// Invalidf returns an ErrValidation carrying a human-readable message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
