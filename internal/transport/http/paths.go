package http

import (
	"net/http"
	"net/url"
	"strings"
)

// pathSegments returns the unescaped segments of the request path after
// prefix. ok is false when the path is not under prefix or a segment is empty
// or badly escaped.
func pathSegments(r *http.Request, prefix string) ([]string, bool) {
	rest, found := strings.CutPrefix(r.URL.EscapedPath(), prefix)
	if !found || (rest != "" && rest[0] != '/') {
		return nil, false
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil, true
	}
	parts := strings.Split(rest, "/")
	for i, part := range parts {
		v, err := url.PathUnescape(part)
		if err != nil || v == "" {
			return nil, false
		}
		parts[i] = v
	}
	return parts, true
}
