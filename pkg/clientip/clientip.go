package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr only (no proxy
// headers). Use it when traffic reaches the app directly.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// ForwardedClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then RemoteAddr. Only safe behind a proxy that overwrites those headers.
func ForwardedClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return RealClientIP(r)
}

// Func picks the IP extraction strategy.
func Func(trustProxy bool) func(*http.Request) string {
	if trustProxy {
		return ForwardedClientIP
	}
	return RealClientIP
}
