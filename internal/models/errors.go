package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a trip, date or seat does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a requested seat is already sold for the date
	ErrConflict = errors.New("seat already booked")

	// ErrStoreFailure is returned when a durable write did not complete
	ErrStoreFailure = errors.New("store write failed")
)

// ValidationError reports malformed or missing caller input
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ConflictError lists the seats that were already taken when a reservation was attempted
type ConflictError struct {
	TripID int64
	Date   string
	Seats  []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats %s already booked for trip %d on %s", strings.Join(e.Seats, ", "), e.TripID, e.Date)
}

// Is makes errors.Is(err, ErrConflict) match
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StoreError wraps a persistence failure; the operation that hit it left no partial state
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStoreFailure) match
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
