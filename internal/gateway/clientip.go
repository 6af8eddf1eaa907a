package gateway

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's identifier for rate limiting: first hop of
// X-Forwarded-For, else the RemoteAddr host, else "unknown". The limiter
// treats any string as a valid key, so the sentinel is safe.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
