// Package metadata reads caller details from HTTP requests.
package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPFromRequest returns the caller address used for access logs and
// anonymous rate limiting. The first X-Forwarded-For hop wins, then
// X-Real-IP, then the connection address. Header values that do not parse as
// an IP are ignored.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}

	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.String(), true
}
