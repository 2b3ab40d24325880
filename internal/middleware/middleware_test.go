package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/pkg/clientip"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(ip, path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = ip + ":40000"
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(okHandler), requestFrom("1.1.1.1", "/"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.example.com")(okHandler)

	r := requestFrom("1.1.1.1", "/")
	r.Host = "API.example.com:443"
	assert.Equal(t, http.StatusOK, serve(h, r).Code)

	r.Host = "evil.example.com"
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)

	assert.Equal(t, http.StatusOK, serve(HostCheck("")(okHandler), r).Code)
}

func TestIPLimiter_PerIP(t *testing.T) {
	l := NewIPLimiter(rate.Every(time.Hour), 2, clientip.RealClientIP, "slow down")
	h := l.Middleware(okHandler)

	assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/")).Code)
	assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/")).Code)
	rec := serve(h, requestFrom("1.1.1.1", "/"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "slow down", detail(t, rec))

	assert.Equal(t, http.StatusOK, serve(h, requestFrom("2.2.2.2", "/")).Code)
}

func TestIPLimiter_Sweep(t *testing.T) {
	l := NewIPLimiter(rate.Every(time.Hour), 1, clientip.RealClientIP, "")
	l.Allow(requestFrom("1.1.1.1", "/"))
	require.Len(t, l.entries, 1)

	l.sweep(time.Now().Add(limiterTTL + time.Minute))
	assert.Empty(t, l.entries)
}

func TestOnlyPath(t *testing.T) {
	login := NewIPLimiter(rate.Every(time.Hour), 1, clientip.RealClientIP, "too many")
	h := OnlyPath(LoginPath, login.Middleware)(okHandler)

	assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/api/auth/login")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, requestFrom("1.1.1.1", "/api/auth/login/")).Code)
	assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/api/contacts")).Code)
}

func TestRedisRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewRedisRateLimit(client, 10, time.Minute, "me", clientip.RealClientIP).Middleware(okHandler)

	for i := 0; i < 10; i++ {
		rec := serve(h, requestFrom("1.1.1.1", "/api/users/me"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := serve(h, requestFrom("1.1.1.1", "/api/users/me"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 60*time.Second, mr.TTL("ratelimit:me:1.1.1.1"))

	assert.Equal(t, http.StatusOK, serve(h, requestFrom("2.2.2.2", "/api/users/me")).Code)

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/api/users/me")).Code)
}

func TestRedisRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	h := NewRedisRateLimit(client, 1, time.Minute, "me", clientip.RealClientIP).Middleware(okHandler)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(h, requestFrom("1.1.1.1", "/")).Code)
	}

	disabled := NewRedisRateLimit(nil, 1, time.Minute, "me", clientip.RealClientIP).Middleware(okHandler)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(disabled, requestFrom("1.1.1.1", "/")).Code)
	}
}

type resolverFunc func(r *http.Request) (*models.User, error)

func (f resolverFunc) ResolveRequest(r *http.Request) (*models.User, error) { return f(r) }

func TestRequireUser(t *testing.T) {
	u1 := &models.User{Username: "u1"}
	resolver := resolverFunc(func(r *http.Request) (*models.User, error) {
		if r.Header.Get("Authorization") == "Bearer good" {
			return u1, nil
		}
		return nil, apperr.Unauthenticated("Could not validate credentials")
	})

	var seen *models.User
	h := RequireUser(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))

	rec := serve(h, requestFrom("1.1.1.1", "/api/users/me"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Could not validate credentials", detail(t, rec))
	assert.Nil(t, seen)

	r := requestFrom("1.1.1.1", "/api/users/me")
	r.Header.Set("Authorization", "Bearer good")
	rec = serve(h, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, u1, seen)
}

func TestRequireUser_UnknownErrorIs500(t *testing.T) {
	h := RequireUser(resolverFunc(func(*http.Request) (*models.User, error) {
		return nil, errors.New("boom")
	}))(okHandler)

	rec := serve(h, requestFrom("1.1.1.1", "/"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detail(t, rec))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	}))
	serve(h, httptest.NewRequest(http.MethodPost, "/api/contacts", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/contacts", line["path"])
	assert.EqualValues(t, 201, line["status"])
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(h, r)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rec = serve(h, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
