package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown identifier.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports a rejected input: malformed id, unsupported
	// content type or metadata value outside the allowed kinds.
	ErrValidation = errors.New("validation error")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invalidf wraps ErrValidation with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
