package http

import "net/http"

// NewMux registers every ticket route plus health and the JSON 404 fallback.
func NewMux(tickets TicketService, tags TagService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/tickets", HandleTickets(tickets))
	mux.Handle("/tickets/", HandleTickets(tickets))
	mux.Handle("/tags", HandleTags(tags))
	mux.Handle("/tags/", HandleTags(tags))
	mux.Handle("/", NotFoundHandler())
	return mux
}
