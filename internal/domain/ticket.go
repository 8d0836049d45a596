package domain

import "time"

// Ticket is a time-bounded booking record, optionally grouped by tag.
type Ticket struct {
	ID string
	// Tag is empty when the ticket belongs to no group.
	Tag   string
	Start time.Time
	// End is nil when no expiry has been set.
	End       *time.Time
	Payload   map[string]any
	CreatedAt time.Time
}

// ExpiredAt reports whether the ticket's window has closed at now.
// The boundary is inclusive: a ticket ending exactly at now is expired.
func (t Ticket) ExpiredAt(now time.Time) bool {
	return t.End != nil && !t.End.After(now)
}

// Period returns End - Start. The result is negative when the stored window
// is inverted; callers must check End != nil first.
func (t Ticket) Period() time.Duration {
	return t.End.Sub(t.Start)
}

// Covers reports whether at falls inside [Start, End]. An open end covers
// everything from Start onwards.
func (t Ticket) Covers(at time.Time) bool {
	if at.Before(t.Start) {
		return false
	}
	return t.End == nil || !at.After(*t.End)
}

// LegacyCovers is the historical booking predicate: at >= Start OR at <= End.
// It matches almost every instant and is kept only for compatibility.
func (t Ticket) LegacyCovers(at time.Time) bool {
	if !at.Before(t.Start) {
		return true
	}
	return t.End != nil && !at.After(*t.End)
}

// Booking is the answer to "is this tag group booked at a given instant".
type Booking struct {
	Booked bool
	Ticket *Ticket
}

// Filter selects tickets for bulk find and remove. Set fields are combined
// with AND. The zero Filter matches every ticket.
type Filter struct {
	Tag           string
	EndAtOrBefore *time.Time
}

// IsZero reports whether the filter has no constraints.
func (f Filter) IsZero() bool {
	return f.Tag == "" && f.EndAtOrBefore == nil
}
