package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/app"
	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

// TicketService is the minimal interface needed for the /tickets endpoints.
type TicketService interface {
	CreateTicket(ctx context.Context, in app.CreateTicketInput) (domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, in app.UpdateTicketInput) (domain.Ticket, error)
	ExtendTicket(ctx context.Context, id string, end app.TimeInput) (domain.Ticket, error)
	AddTag(ctx context.Context, id, tag string) (domain.Ticket, error)
	RemoveTag(ctx context.Context, id string) (domain.Ticket, error)
	RemoveTicket(ctx context.Context, id string) (bool, error)
	IsExpired(ctx context.Context, id string) (bool, error)
	GetPeriod(ctx context.Context, id string) (time.Duration, error)
	RemoveIfExpired(ctx context.Context, id string) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// HandleTickets returns an HTTP handler for everything under /tickets.
func HandleTickets(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts, ok := pathSegments(r, "/tickets")
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
			createTicket(w, r, svc)
		case len(parts) == 1 && parts[0] == "expired":
			if r.Method != http.MethodDelete {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			n, err := svc.SweepExpired(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, removedCountResponse{Removed: n})
		case len(parts) == 1:
			ticketResource(w, r, svc, parts[0])
		case len(parts) == 2:
			ticketAction(w, r, svc, parts[0], parts[1])
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func createTicket(w http.ResponseWriter, r *http.Request, svc TicketService) {
	var req createTicketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	ticket, err := svc.CreateTicket(r.Context(), app.CreateTicketInput{
		Tag:     req.Tag,
		Start:   app.Text(req.Start),
		End:     app.Text(req.End),
		Payload: req.Payload,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTicketResponse(ticket))
}

func ticketResource(w http.ResponseWriter, r *http.Request, svc TicketService, id string) {
	switch r.Method {
	case http.MethodGet:
		ticket, err := svc.GetTicket(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTicketResponse(ticket))
	case http.MethodPatch:
		var req updateTicketRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		ticket, err := svc.UpdateTicket(r.Context(), id, req.input())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTicketResponse(ticket))
	case http.MethodDelete:
		if _, err := svc.RemoveTicket(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

func ticketAction(w http.ResponseWriter, r *http.Request, svc TicketService, id, action string) {
	type route struct {
		action string
		method string
	}
	switch (route{action, r.Method}) {
	case route{"extend", http.MethodPost}:
		var req extendTicketRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		var end string
		if req.End != nil {
			end = *req.End
		}
		ticket, err := svc.ExtendTicket(r.Context(), id, app.Text(end))
		respondTicket(w, ticket, err)
	case route{"tag", http.MethodPut}:
		var req tagRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		ticket, err := svc.AddTag(r.Context(), id, req.Tag)
		respondTicket(w, ticket, err)
	case route{"tag", http.MethodDelete}:
		ticket, err := svc.RemoveTag(r.Context(), id)
		respondTicket(w, ticket, err)
	case route{"expired", http.MethodGet}:
		expired, err := svc.IsExpired(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expiredResponse{Expired: expired})
	case route{"period", http.MethodGet}:
		period, err := svc.GetPeriod(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, periodResponse{PeriodMS: period.Milliseconds()})
	case route{"expire", http.MethodPost}:
		removed, err := svc.RemoveIfExpired(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, removedResponse{Removed: removed})
	default:
		switch action {
		case "extend", "tag", "expired", "period", "expire":
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func respondTicket(w http.ResponseWriter, ticket domain.Ticket, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTicketResponse(ticket))
}

type createTicketRequest struct {
	Tag     string         `json:"tag,omitempty"`
	Start   string         `json:"start"`
	End     string         `json:"end"`
	Payload map[string]any `json:"payload,omitempty"`
}

// updateTicketRequest overwrites only the fields given a non-empty value.
// Absent, null and empty fields keep the stored value; a payload object,
// even an empty one, replaces the stored payload.
type updateTicketRequest struct {
	Tag     *string        `json:"tag"`
	Start   *string        `json:"start"`
	End     *string        `json:"end"`
	Payload map[string]any `json:"payload"`
}

func (r updateTicketRequest) input() app.UpdateTicketInput {
	in := app.UpdateTicketInput{
		Tag:     r.Tag,
		Payload: r.Payload,
	}
	if r.Start != nil {
		start := app.Text(*r.Start)
		in.Start = &start
	}
	if r.End != nil {
		end := app.Text(*r.End)
		in.End = &end
	}
	return in
}

type extendTicketRequest struct {
	End *string `json:"end"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type ticketResponse struct {
	ID        string         `json:"id"`
	Tag       *string        `json:"tag"`
	Start     time.Time      `json:"start"`
	End       *time.Time     `json:"end"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func newTicketResponse(t domain.Ticket) ticketResponse {
	resp := ticketResponse{
		ID:        t.ID,
		Start:     t.Start,
		End:       t.End,
		Payload:   t.Payload,
		CreatedAt: t.CreatedAt,
	}
	if t.Tag != "" {
		tag := t.Tag
		resp.Tag = &tag
	}
	if resp.Payload == nil {
		resp.Payload = map[string]any{}
	}
	return resp
}

type expiredResponse struct {
	Expired bool `json:"expired"`
}

type periodResponse struct {
	PeriodMS int64 `json:"period_ms"`
}

type removedResponse struct {
	Removed bool `json:"removed"`
}

type removedCountResponse struct {
	Removed int64 `json:"removed"`
}
