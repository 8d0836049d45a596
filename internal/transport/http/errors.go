package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidDate          = "invalid_date"
	codeInvalidWindow        = "invalid_window"
	codeTicketNotFound       = "ticket_not_found"
	codeOpenEnded            = "open_ended"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps lifecycle service errors onto HTTP statuses.
// Store failures are not echoed to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, err.Error())
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, codeInvalidDate, err.Error())
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, codeInvalidWindow, err.Error())
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrOpenEnded):
		writeError(w, http.StatusConflict, codeOpenEnded, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
