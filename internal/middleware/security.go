package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				writeDetail(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPLimiter keeps one token bucket per client IP in memory. Buckets unused
// for limiterTTL are dropped by Run.
type IPLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	every   rate.Limit
	burst   int
	ipOf    func(*http.Request) string
	message string
}

func NewIPLimiter(limit rate.Limit, burst int, ipOf func(*http.Request) string, message string) *IPLimiter {
	return &IPLimiter{
		entries: make(map[string]*limiterEntry),
		every:   limit,
		burst:   burst,
		ipOf:    ipOf,
		message: message,
	}
}

func (l *IPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

// Allow reports whether the request's IP has a token left.
func (l *IPLimiter) Allow(r *http.Request) bool {
	return l.get(l.ipOf(r)).Allow()
}

func (l *IPLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(l.entries, ip)
		}
	}
}

// Run evicts idle buckets until ctx is done.
func (l *IPLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// Middleware answers 429 once the IP's bucket is empty.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r) {
			writeDetail(w, http.StatusTooManyRequests, l.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginPath is the only route the login limiter applies to.
const LoginPath = "/api/auth/login"

// NewGlobalLimiter limits each IP to 5 req/s, burst 20.
func NewGlobalLimiter(ipOf func(*http.Request) string) *IPLimiter {
	return NewIPLimiter(rate.Limit(5), 20, ipOf, "Too many requests. Please slow down.")
}

// NewLoginLimiter allows one login attempt per 5s per IP, burst 5.
func NewLoginLimiter(ipOf func(*http.Request) string) *IPLimiter {
	return NewIPLimiter(rate.Every(5*time.Second), 5, ipOf, "Too many login attempts. Please try again later.")
}

// OnlyPath applies mw to requests for path and passes everything else through.
func OnlyPath(path string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSuffix(r.URL.Path, "/") == path {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → global limit → login limit.
func ProductionSecurity(allowedHost string, global, login *IPLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		global.Middleware,
		OnlyPath(LoginPath, login.Middleware),
	}
}
