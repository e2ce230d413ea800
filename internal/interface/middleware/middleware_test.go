package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/internal/infrastructure/cache"
	"github.com/projectfocus/focus-api/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "6f1c1f0e-8d4b-4a51-9f63-1b7c1e0f2a10")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "6f1c1f0e-8d4b-4a51-9f63-1b7c1e0f2a10", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		headers map[string]string
		want    string
	}{
		{name: "no proxy trust ignores headers", trust: false, headers: map[string]string{"X-Forwarded-For": "198.51.100.9"}, want: "192.0.2.1"},
		{name: "cloudflare", trust: true, headers: map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, want: "198.51.100.1"},
		{name: "left-most forwarded", trust: true, headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, want: "198.51.100.2"},
		{name: "x-real-ip", trust: true, headers: map[string]string{"X-Real-IP": "198.51.100.3"}, want: "198.51.100.3"},
		{name: "garbage falls back", trust: true, headers: map[string]string{"X-Forwarded-For": "nope"}, want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			require.NoError(t, r.SetTrustedProxies(nil))
			r.Use(RealIP(tt.trust))
			r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4321"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func newLimiter(t *testing.T, limit int) (*miniredis.Miniredis, *cache.AttemptLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewAttemptLimiter(rdb, "rl:", limit, time.Minute)
}

func TestRateLimit(t *testing.T) {
	_, l := newLimiter(t, 2)
	r := gin.New()
	r.Use(RealIP(false))
	r.POST("/signup", RateLimit(l, KeyByIP(), nil, helpers.NewDiscardLogger()), ok)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = "203.0.113.5:1000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, do().Code)

	w = do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"kind":"RateLimited"`)
}

func TestRateLimit_AllowBypassAndFailOpen(t *testing.T) {
	mr, l := newLimiter(t, 1)
	r := gin.New()
	r.GET("/vars", RateLimit(l, KeyByIP(), AllowPrivateIP(), nil), ok)
	r.GET("/open", RateLimit(l, KeyByIP(), nil, nil), ok)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/vars", nil)
		req.RemoteAddr = "10.1.2.3:1000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	mr.Close()
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.RemoteAddr = "203.0.113.5:1000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

type stubAuth struct {
	sess *application.Session
	err  error
	got  string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*application.Session, error) {
	s.got = token
	return s.sess, s.err
}

func TestAuth(t *testing.T) {
	cookie := helpers.NewSessionCookie("token", "", false)

	tests := []struct {
		name     string
		cookie   string
		auth     *stubAuth
		wantCode int
		wantKind string
	}{
		{name: "missing cookie", auth: &stubAuth{}, wantCode: http.StatusUnauthorized, wantKind: "TokenInvalid"},
		{
			name:     "expired",
			cookie:   "old",
			auth:     &stubAuth{err: &application.Error{Kind: application.KindTokenExpired, Message: "Session expired."}},
			wantCode: http.StatusUnauthorized,
			wantKind: "TokenExpired",
		},
		{
			name:     "store down",
			cookie:   "tok",
			auth:     &stubAuth{err: errors.New("boom")},
			wantCode: http.StatusServiceUnavailable,
			wantKind: "ServiceUnavailable",
		},
		{
			name:     "valid",
			cookie:   "tok",
			auth:     &stubAuth{sess: &application.Session{UserID: "u1", TokenID: "j1"}},
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", Auth(tt.auth, cookie), func(c *gin.Context) {
				c.String(http.StatusOK, c.GetString(CtxUserIDKey)+"/"+c.GetString(CtxSessionIDKey))
			})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantKind != "" {
				assert.Contains(t, w.Body.String(), `"kind":"`+tt.wantKind+`"`)
				return
			}
			assert.Equal(t, "u1/j1", w.Body.String())
			assert.Equal(t, "tok", tt.auth.got)
		})
	}
}
