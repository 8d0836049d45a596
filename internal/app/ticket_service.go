package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/clock"
	"github.com/ramachandrajr/ticket-boy/internal/domain"
	"github.com/ramachandrajr/ticket-boy/internal/tag"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Insert(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	FindByID(ctx context.Context, id string) (domain.Ticket, error)
	Find(ctx context.Context, filter domain.Filter) ([]domain.Ticket, error)
	Save(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	RemoveByID(ctx context.Context, id string) (int64, error)
	RemoveByFilter(ctx context.Context, filter domain.Filter) (int64, error)
}

type TicketService struct {
	repo           TicketRepository
	clock          clock.Clock
	tags           tag.Generator
	logger         *slog.Logger
	validateWindow bool
	legacyMatch    bool
}

func NewTicketService(repo TicketRepository, clk clock.Clock, gen tag.Generator, opts ...TicketServiceOption) *TicketService {
	svc := &TicketService{
		repo:   repo,
		clock:  clk,
		tags:   gen,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type TicketServiceOption func(*TicketService)

func WithLogger(logger *slog.Logger) TicketServiceOption {
	return func(s *TicketService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWindowValidation rejects writes that would leave end before start.
func WithWindowValidation() TicketServiceOption {
	return func(s *TicketService) {
		s.validateWindow = true
	}
}

// WithLegacyBookingMatch makes IsBooked use the historical OR predicate
// (at >= start || at <= end) instead of window containment.
func WithLegacyBookingMatch() TicketServiceOption {
	return func(s *TicketService) {
		s.legacyMatch = true
	}
}

type CreateTicketInput struct {
	Tag     string
	Start   TimeInput
	End     TimeInput
	Payload map[string]any
}

func (s *TicketService) CreateTicket(ctx context.Context, in CreateTicketInput) (domain.Ticket, error) {
	start, err := in.Start.Resolve("start")
	if err != nil {
		return domain.Ticket{}, err
	}
	end, err := in.End.Resolve("end")
	if err != nil {
		return domain.Ticket{}, err
	}
	if err := s.checkWindow(start, &end); err != nil {
		return domain.Ticket{}, err
	}

	payload := in.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	var result domain.Ticket
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		created, err := s.repo.Insert(txCtx, domain.Ticket{
			Tag:     in.Tag,
			Start:   start,
			End:     &end,
			Payload: payload,
		})
		if err != nil {
			return err
		}
		// The tag is derived from the store-assigned id, so it can only be
		// set after the insert.
		if created.Tag == "" {
			created.Tag = s.tags.FromID(created.ID)
			if created, err = s.repo.Save(txCtx, created); err != nil {
				return err
			}
		}
		result = created
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.logger.Debug("ticket created", "id", result.ID, "tag", result.Tag)
	return result, nil
}

// CreateTag returns a fresh tag for grouping tickets that do not exist yet.
func (s *TicketService) CreateTag() string {
	return s.tags.New()
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TicketService) IsExpired(ctx context.Context, id string) (bool, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return t.ExpiredAt(s.clock.Now()), nil
}

// GetPeriod returns end - start. Inverted windows yield a negative duration.
func (s *TicketService) GetPeriod(ctx context.Context, id string) (time.Duration, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if t.End == nil {
		return 0, domain.ErrOpenEnded
	}
	return t.Period(), nil
}

// IsBooked reports the first ticket in the tag group, in store order, whose
// window matches at.
func (s *TicketService) IsBooked(ctx context.Context, tagName string, at time.Time) (domain.Booking, error) {
	tickets, err := s.FindAll(ctx, tagName)
	if err != nil {
		return domain.Booking{}, err
	}
	for i := range tickets {
		t := tickets[i]
		matched := t.Covers(at)
		if s.legacyMatch {
			matched = t.LegacyCovers(at)
		}
		if matched {
			return domain.Booking{Booked: true, Ticket: &t}, nil
		}
	}
	return domain.Booking{Booked: false}, nil
}

func (s *TicketService) FindAll(ctx context.Context, tagName string) ([]domain.Ticket, error) {
	if tagName == "" {
		return nil, &domain.MissingFieldError{Field: "tag"}
	}
	return s.repo.Find(ctx, domain.Filter{Tag: tagName})
}

// ExtendTicket overwrites end. A zero TimeInput clears it.
func (s *TicketService) ExtendTicket(ctx context.Context, id string, end TimeInput) (domain.Ticket, error) {
	var newEnd *time.Time
	if !end.IsZero() {
		v, err := end.Resolve("end")
		if err != nil {
			return domain.Ticket{}, err
		}
		newEnd = &v
	}

	return s.modify(ctx, id, "ticket extended", func(t *domain.Ticket) error {
		t.End = newEnd
		return s.checkWindow(t.Start, t.End)
	})
}

// UpdateTicketInput carries the fields to overwrite. A nil field was not
// supplied. A supplied empty value (empty tag, zero TimeInput) is ignored as
// well, so the stored value is kept; use RemoveTag or ExtendTicket to clear.
// A non-nil payload always replaces the stored one, including an empty map.
type UpdateTicketInput struct {
	Tag     *string
	Start   *TimeInput
	End     *TimeInput
	Payload map[string]any
}

func (s *TicketService) UpdateTicket(ctx context.Context, id string, in UpdateTicketInput) (domain.Ticket, error) {
	start, err := resolveSupplied(in.Start, "start")
	if err != nil {
		return domain.Ticket{}, err
	}
	end, err := resolveSupplied(in.End, "end")
	if err != nil {
		return domain.Ticket{}, err
	}

	return s.modify(ctx, id, "ticket updated", func(t *domain.Ticket) error {
		if in.Tag != nil && *in.Tag != "" {
			t.Tag = *in.Tag
		}
		if start != nil {
			t.Start = *start
		}
		if end != nil {
			t.End = end
		}
		if in.Payload != nil {
			t.Payload = in.Payload
		}
		return s.checkWindow(t.Start, t.End)
	})
}

// resolveSupplied returns nil for an input that is absent or empty.
func resolveSupplied(in *TimeInput, field string) (*time.Time, error) {
	if in == nil || in.IsZero() {
		return nil, nil
	}
	v, err := in.Resolve(field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *TicketService) AddTag(ctx context.Context, id, tagName string) (domain.Ticket, error) {
	if tagName == "" {
		return domain.Ticket{}, &domain.MissingFieldError{Field: "tag"}
	}
	return s.modify(ctx, id, "tag added", func(t *domain.Ticket) error {
		t.Tag = tagName
		return nil
	})
}

func (s *TicketService) RemoveTag(ctx context.Context, id string) (domain.Ticket, error) {
	return s.modify(ctx, id, "tag removed", func(t *domain.Ticket) error {
		t.Tag = ""
		return nil
	})
}

// RemoveTicket deletes by id. Removing an absent ticket succeeds.
func (s *TicketService) RemoveTicket(ctx context.Context, id string) (bool, error) {
	if _, err := s.repo.RemoveByID(ctx, id); err != nil {
		return false, err
	}
	s.logger.Debug("ticket removed", "id", id)
	return true, nil
}

func (s *TicketService) RemoveAllWithTag(ctx context.Context, tagName string) (bool, error) {
	if tagName == "" {
		return false, &domain.MissingFieldError{Field: "tag"}
	}
	n, err := s.repo.RemoveByFilter(ctx, domain.Filter{Tag: tagName})
	if err != nil {
		return false, err
	}
	s.logger.Info("tickets removed by tag", "tag", tagName, "removed", n)
	return true, nil
}

// RemoveIfExpired deletes the ticket only when it has expired and reports
// whether it did.
func (s *TicketService) RemoveIfExpired(ctx context.Context, id string) (bool, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !t.ExpiredAt(s.clock.Now()) {
		return false, nil
	}
	if _, err := s.repo.RemoveByID(ctx, id); err != nil {
		return false, err
	}
	s.logger.Debug("expired ticket removed", "id", id)
	return true, nil
}

func (s *TicketService) RemoveAllExpired(ctx context.Context) (bool, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SweepExpired removes every ticket with end <= now in one filtered delete and
// returns how many were removed.
func (s *TicketService) SweepExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	n, err := s.repo.RemoveByFilter(ctx, domain.Filter{EndAtOrBefore: &now})
	if err != nil {
		return 0, err
	}
	s.logger.Info("expired tickets removed", "removed", n, "cutoff", now)
	return n, nil
}

// modify is the read-modify-write cycle shared by the single-ticket updates.
// Concurrent calls on the same id are last-write-wins.
func (s *TicketService) modify(ctx context.Context, id, msg string, apply func(t *domain.Ticket) error) (domain.Ticket, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	if err := apply(&t); err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		return domain.Ticket{}, err
	}
	s.logger.Debug(msg, "id", saved.ID, "tag", saved.Tag)
	return saved, nil
}

func (s *TicketService) checkWindow(start time.Time, end *time.Time) error {
	if s.validateWindow && end != nil && end.Before(start) {
		return domain.ErrInvalidWindow
	}
	return nil
}
