package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidDate    = errors.New("invalid date")
	ErrStore          = errors.New("store failure")
	ErrOpenEnded      = errors.New("ticket has no end")
	ErrInvalidWindow  = errors.New("end before start")
)

// MissingFieldError reports a required input that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// InvalidDateError reports a start/end value that could not be parsed.
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrInvalidDate, e.Field, e.Value)
}

func (e *InvalidDateError) Is(target error) bool { return target == ErrInvalidDate }

func (e *InvalidDateError) Unwrap() error { return e.Err }

// StoreError wraps a failure from the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }
