package shared

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address for logging and rate-limit keys. Only
// the last X-Forwarded-For entry is used: it is the one appended by the proxy
// in front of this server, while earlier entries arrive client-controlled and
// would let a direct caller pick its own key.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		last := strings.TrimSpace(parts[len(parts)-1])
		if last != "" {
			return last
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
