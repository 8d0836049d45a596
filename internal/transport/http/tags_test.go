package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

func TestHandleTags(t *testing.T) {
	t.Parallel()

	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := domain.Ticket{ID: "ticket-1", Tag: "court-1", Start: start}

	tests := []struct {
		name           string
		method         string
		path           string
		booking        domain.Booking
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "create tag",
			method:         http.MethodPost,
			path:           "/tags",
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"tag":"fresh-tag"`,
		},
		{
			name:           "list tags not allowed",
			method:         http.MethodGet,
			path:           "/tags",
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "find all",
			method:         http.MethodGet,
			path:           "/tags/court-1/tickets",
			expectedStatus: http.StatusOK,
			expectedSubstr: `"id":"ticket-1"`,
		},
		{
			name:           "find all store failure",
			method:         http.MethodGet,
			path:           "/tags/court-1/tickets",
			serviceErr:     &domain.StoreError{Op: "find", Err: errors.New("timeout")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "remove all with tag",
			method:         http.MethodDelete,
			path:           "/tags/court-1/tickets",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "booked",
			method:         http.MethodGet,
			path:           "/tags/court-1/booked?at=2014-06-01",
			booking:        domain.Booking{Booked: true, Ticket: &ticket},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"booked":true`,
		},
		{
			name:           "not booked",
			method:         http.MethodGet,
			path:           "/tags/court-1/booked?at=2014-06-01",
			expectedStatus: http.StatusOK,
			expectedSubstr: `"ticket":null`,
		},
		{
			name:           "booked without at",
			method:         http.MethodGet,
			path:           "/tags/court-1/booked",
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeMissingRequiredField,
		},
		{
			name:           "booked with bad at",
			method:         http.MethodGet,
			path:           "/tags/court-1/booked?at=not-a-date",
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidDate,
		},
		{
			name:           "unknown subresource",
			method:         http.MethodGet,
			path:           "/tags/court-1/other",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubTagService{
				tag:     "fresh-tag",
				tickets: []domain.Ticket{ticket},
				booking: tt.booking,
				err:     tt.serviceErr,
			}
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			HandleTags(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleTags_BookedPassesParsedInstant(t *testing.T) {
	t.Parallel()

	svc := &stubTagService{}
	req := httptest.NewRequest(http.MethodGet, "/tags/court%2F1/booked?at=2014-06-01T10:00:00Z", nil)
	rec := httptest.NewRecorder()

	HandleTags(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotTag != "court/1" {
		t.Fatalf("expected unescaped tag, got %q", svc.gotTag)
	}
	if !svc.gotAt.Equal(time.Date(2014, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected at %v", svc.gotAt)
	}
}

type stubTagService struct {
	tag     string
	tickets []domain.Ticket
	booking domain.Booking
	err     error
	gotTag  string
	gotAt   time.Time
}

func (s *stubTagService) CreateTag() string {
	return s.tag
}

func (s *stubTagService) FindAll(_ context.Context, _ string) ([]domain.Ticket, error) {
	return s.tickets, s.err
}

func (s *stubTagService) RemoveAllWithTag(_ context.Context, _ string) (bool, error) {
	return s.err == nil, s.err
}

func (s *stubTagService) IsBooked(_ context.Context, tag string, at time.Time) (domain.Booking, error) {
	s.gotTag = tag
	s.gotAt = at
	return s.booking, s.err
}
