// Package apperrors defines the sentinel errors shared across trackmate packages.
package apperrors

import "errors"

// These are checked with errors.Is; callers wrap them with context using %w.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate")
	// ErrBusy indicates the store was busy and the operation may be retried.
	ErrBusy = errors.New("store busy")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is or wraps ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDuplicate reports whether err is or wraps ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsBusy reports whether err is or wraps ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
