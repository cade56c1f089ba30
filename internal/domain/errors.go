package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for missing or invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an attempt or quiz id is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user acts on something they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when no acting user can be identified.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps failures of the external persistence layer.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUpstreamUnavailable wraps failures of external content providers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var (
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)
	ErrQuizNotFound    = fmt.Errorf("quiz %w", ErrNotFound)
	ErrNotOwner        = fmt.Errorf("%w: not the owner", ErrForbidden)
	ErrQuizNotPlayable = fmt.Errorf("%w: quiz is not playable", ErrValidation)
)

// Invalid builds a validation error naming the offending field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// Unavailable marks err as a store failure while keeping it inspectable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Upstream marks err as a failure of an external provider.
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}
