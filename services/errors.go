package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("lesson not found")
	ErrForbidden    = errors.New("no access to this lesson")
	ErrInvalidState = errors.New("lesson is in the wrong state")
	ErrConflict     = errors.New("lesson was modified concurrently")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
