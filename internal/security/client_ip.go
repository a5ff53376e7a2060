package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"lark/internal/config"
)

// Forwarded headers in precedence order. CF-Connecting-IP is set by
// Cloudflare, X-Real-IP by nginx, X-Forwarded-For by most load balancers.
var forwardedHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
}

// ClientIP resolves the address admission decisions are keyed on. Forwarded
// headers are only honored when the deployment declares a trusted proxy in
// front, and even then private or reserved addresses in them are skipped,
// since an attacker must not be able to shift a ban onto a spoofed address.
func ClientIP(r *http.Request) string {
	if config.GetConfig().Security.TrustForwardedHeaders {
		for _, header := range forwardedHeaders {
			value := r.Header.Get(header)
			if value == "" {
				continue
			}
			for _, candidate := range strings.Split(value, ",") {
				if ip := parsePublicIP(strings.TrimSpace(candidate)); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String()
	}
	return "127.0.0.1"
}

func parsePublicIP(candidate string) string {
	addr, err := netip.ParseAddr(candidate)
	if err != nil {
		return ""
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsMulticast() || addr.IsUnspecified() {
		return ""
	}
	return addr.String()
}
