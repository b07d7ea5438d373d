package domain

import (
	"errors"
	"fmt"
)

// ErrAlreadyConfirmed is returned when confirming a booking that already
// holds a confirmed table assignment. No state is changed.
var ErrAlreadyConfirmed = errors.New("booking is already confirmed")

// ValidationError rejects a request before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AvailabilityError signals that a slot is taken or no table fits.
// Suggestions carries alternative slot times when any exist.
type AvailabilityError struct {
	Reason      string
	Suggestions []string
}

func (e *AvailabilityError) Error() string { return e.Reason }

// NotFoundError signals an absent booking or table.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// TokenError distinguishes an expired confirmation token from an invalid
// one so callers can render the two cases differently.
type TokenError struct {
	Expired bool
}

func (e *TokenError) Error() string {
	if e.Expired {
		return "confirmation token has expired"
	}
	return "invalid confirmation token"
}

// StorageError wraps a data-store write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
