package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

func encodeJSONResponse[T any](w http.ResponseWriter, code int, data T) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusNoContent {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// clientIP returns the address the email open came from. Proxy headers are
// only consulted when the remote address cannot be parsed.
func clientIP(req *http.Request) (string, bool) {
	out, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		out = forwardedFor(req)
	}

	ip := net.ParseIP(strings.TrimSpace(out))
	switch {
	case ip == nil, ip.IsUnspecified():
		return "", false
	case ip.IsLoopback():
		return "127.0.0.1", true
	default:
		return ip.String(), true
	}
}

func forwardedFor(req *http.Request) string {
	if xoff := req.Header.Get("X-Original-Forwarded-For"); xoff != "" {
		return xoff
	}
	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	xff := strings.Split(req.Header.Get("X-Forwarded-For"), ",")
	if xff[0] == req.Header.Get("X-Envoy-External-Address") {
		return ""
	}
	return xff[0]
}
