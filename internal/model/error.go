package model

import (
	"errors"
	"fmt"
)

// Error definitions for the model package.
var (
	ErrDuplicateIdentifier = errors.New("model identifier already registered")
	ErrUnknownIdentifier   = errors.New("model identifier not registered")
	ErrInvalidIdentifier   = errors.New("model identifier is empty")
	ErrReloadFailure       = errors.New("model reload failed")
)

// ReloadError reports a failed reload of a single model.
// It matches both ErrReloadFailure and the underlying cause.
type ReloadError struct {
	ModelID string
	Err     error
}

// Error implements the error interface.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrReloadFailure, e.ModelID, e.Err)
}

// Unwrap returns both the reload sentinel and the cause.
func (e *ReloadError) Unwrap() []error {
	return []error{ErrReloadFailure, e.Err}
}
