package http

import "net/http"

// NotFoundHandler answers routes outside /tickets and /tags with a JSON 404
// naming the path.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
}
