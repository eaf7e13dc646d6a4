package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address rate limiting and request logs key on. The
// router runs chi's RealIP middleware first, so RemoteAddr usually already
// holds the client address; the header fallbacks cover handlers mounted
// without it.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}
