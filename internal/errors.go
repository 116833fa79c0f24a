package internal

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	// ErrExhausted means no unused question matches the mode and categories.
	// It ends the game, it is never retried.
	ErrExhausted = errors.New("question pool exhausted")
)

// Errorf formats a message and wraps kind so errors.Is keeps working.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
