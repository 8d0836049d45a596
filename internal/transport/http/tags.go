package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/app"
	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

// TagService is the minimal interface needed for the /tags endpoints.
type TagService interface {
	CreateTag() string
	FindAll(ctx context.Context, tag string) ([]domain.Ticket, error)
	RemoveAllWithTag(ctx context.Context, tag string) (bool, error)
	IsBooked(ctx context.Context, tag string, at time.Time) (domain.Booking, error)
}

// HandleTags returns an HTTP handler for everything under /tags.
func HandleTags(svc TagService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts, ok := pathSegments(r, "/tags")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case len(parts) == 0:
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			writeJSON(w, http.StatusCreated, tagResponse{Tag: svc.CreateTag()})
		case len(parts) == 2 && parts[1] == "tickets":
			tagTickets(w, r, svc, parts[0])
		case len(parts) == 2 && parts[1] == "booked":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			at, err := app.Text(r.URL.Query().Get("at")).Resolve("at")
			if err != nil {
				writeServiceError(w, err)
				return
			}
			booking, err := svc.IsBooked(r.Context(), parts[0], at)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := bookingResponse{Booked: booking.Booked}
			if booking.Ticket != nil {
				ticket := newTicketResponse(*booking.Ticket)
				resp.Ticket = &ticket
			}
			writeJSON(w, http.StatusOK, resp)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func tagTickets(w http.ResponseWriter, r *http.Request, svc TagService, tag string) {
	switch r.Method {
	case http.MethodGet:
		tickets, err := svc.FindAll(r.Context(), tag)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]ticketResponse, 0, len(tickets))
		for _, t := range tickets {
			resp = append(resp, newTicketResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodDelete:
		if _, err := svc.RemoveAllWithTag(r.Context(), tag); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

type tagResponse struct {
	Tag string `json:"tag"`
}

type bookingResponse struct {
	Booked bool            `json:"booked"`
	Ticket *ticketResponse `json:"ticket"`
}
