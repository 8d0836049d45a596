package http

import (
	stdhttp "net/http"
)

// HealthHandler reports liveness of the ticket API as {"status":"ok"}.
func HealthHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if r.Method != stdhttp.MethodGet && r.Method != stdhttp.MethodHead {
		writeError(w, stdhttp.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, stdhttp.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
