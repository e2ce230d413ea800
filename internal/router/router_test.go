package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectfocus/focus-api/config"
	"github.com/projectfocus/focus-api/internal/container"
	"github.com/projectfocus/focus-api/pkg/helpers"
	"github.com/projectfocus/focus-api/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("mw")) })
}

func TestRegistry_AppliesMiddlewareUnderAPI(t *testing.T) {
	r := gin.New()
	reg := NewRegistry(r, helpers.NewDiscardLogger())
	reg.Use(func(c *gin.Context) { c.Set("mw", "seen"); c.Next() })
	reg.Add(pingModule{})
	reg.RegisterAll()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "seen", w.Body.String())
}

func TestAuthConfigFromConfig(t *testing.T) {
	cfg := config.Load()
	cfg.PasswordMinLength = 6
	cfg.PasswordRequireDigit = true
	cfg.SessionTTL = time.Hour

	ac := authConfig(cfg)
	assert.Equal(t, 6, ac.Policy.MinLength)
	assert.True(t, ac.Policy.RequireDigit)
	assert.Equal(t, time.Hour, ac.SessionTTL)
	assert.Equal(t, cfg.DBQueryTimeout, ac.StoreTimeout)
	assert.Equal(t, "ProjectFocus", ac.Brand.CompanyName)
}

func TestInitModules_Routes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Load()
	cfg.DebugMetricsEnabled = true
	container.SetConfig(cfg)
	container.SetLogger(helpers.NewDiscardLogger())
	container.SetRedis(rdb)
	container.SetTokens(helpers.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer))
	t.Cleanup(func() { container.SetRedis(nil) })

	r := gin.New()
	reg := NewRegistry(r, helpers.NewDiscardLogger())
	InitModules(reg)
	reg.RegisterAll()
	assert.Equal(t, []string{"auth", "users", "debug"}, reg.Modules())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/users/search?q=ana", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/logout", http.StatusOK},
		{http.MethodGet, "/api/debug/vars", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.RemoteAddr = "127.0.0.1:9000"
		r.ServeHTTP(w, req)
		require.Equal(t, tt.want, w.Code, tt.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ProjectFocus backend is running.", w.Body.String())
}
