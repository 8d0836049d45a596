package app

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

// TimeInput is an optionally supplied instant, given either as a time.Time or
// as text to be parsed. The zero value means "not supplied".
type TimeInput struct {
	at   time.Time
	text string
	set  bool
}

// At supplies an instant directly.
func At(t time.Time) TimeInput {
	return TimeInput{at: t, set: true}
}

// Text supplies an instant as a string, parsed on use. An empty string is
// treated as not supplied.
func Text(s string) TimeInput {
	return TimeInput{text: s, set: s != ""}
}

// IsZero reports whether no value was supplied.
func (in TimeInput) IsZero() bool {
	return !in.set
}

// Resolve returns the normalized UTC instant. field names the input in errors.
func (in TimeInput) Resolve(field string) (time.Time, error) {
	if !in.set {
		return time.Time{}, &domain.MissingFieldError{Field: field}
	}
	if in.text == "" {
		return in.at.UTC(), nil
	}
	t, err := dateparse.ParseIn(in.text, time.UTC)
	if err != nil {
		return time.Time{}, &domain.InvalidDateError{Field: field, Value: in.text, Err: err}
	}
	return t.UTC(), nil
}
