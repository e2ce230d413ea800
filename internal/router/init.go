package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectfocus/focus-api/config"
	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/internal/container"
	"github.com/projectfocus/focus-api/internal/infrastructure/cache"
	pginfra "github.com/projectfocus/focus-api/internal/infrastructure/postgres"
	"github.com/projectfocus/focus-api/internal/infrastructure/search"
	handlers "github.com/projectfocus/focus-api/internal/interface/http"
	"github.com/projectfocus/focus-api/internal/interface/middleware"
	"github.com/projectfocus/focus-api/internal/router/modules"
	"github.com/projectfocus/focus-api/pkg/helpers"
	"github.com/projectfocus/focus-api/pkg/mailer/templates"
)

type AuthModuleDeps struct {
	Service *application.AuthService
	Cookies *helpers.SessionCookie
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
}

// NewAuthService builds the auth service from the container singletons.
// Optional collaborators are attached only when they were constructed.
func NewAuthService() *application.AuthService {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()

	deps := application.AuthDeps{
		Users:  pginfra.NewUserRepository(container.GetPGPool()),
		Hasher: helpers.NewPasswordHasher(cfg.BcryptCost),
		Tokens: container.GetTokens(),
		Logger: logger,
	}
	if rdb != nil {
		deps.Limiter = cache.NewAttemptLimiter(rdb, "auth:", cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
		deps.Revocations = cache.NewRevocationList(rdb)
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		deps.Events = pub
	}
	if es := container.GetES(); es != nil && cfg.SearchEnabled {
		deps.Directory = search.NewUserIndex(es, cfg.ESUsersIndex)
	}

	return application.NewAuthService(deps, authConfig(cfg))
}

func authConfig(cfg *config.Config) application.AuthConfig {
	return application.AuthConfig{
		Policy: application.PasswordPolicy{
			MinLength:        cfg.PasswordMinLength,
			RequireMixedCase: cfg.PasswordRequireMixedCase,
			RequireDigit:     cfg.PasswordRequireDigit,
			RequireSymbol:    cfg.PasswordRequireSymbol,
		},
		SessionTTL:   cfg.SessionTTL,
		StoreTimeout: cfg.DBQueryTimeout,
		RetryBackoff: cfg.DBRetryBackoff,
		Brand: templates.Brand{
			CompanyName: cfg.CompanyName,
			AppName:     cfg.AppName,
			SupportURL:  cfg.SupportURL,
			LoginURL:    cfg.LoginURL,
		},
	}
}

func buildAuthDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	svc := NewAuthService()
	cookies := helpers.NewSessionCookie(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure)

	var searcher handlers.UserSearcher
	if es := container.GetES(); es != nil && cfg.SearchEnabled {
		searcher = search.NewUserIndex(es, cfg.ESUsersIndex)
	}

	return AuthModuleDeps{
		Service: svc,
		Cookies: cookies,
		Auth:    handlers.NewAuthHandler(svc, cookies, logger),
		Users:   handlers.NewUserHandler(searcher, logger),
	}
}

// limiter returns a per-IP rate limit middleware, or a pass-through
// when redis is not configured.
func limiter(prefix string, max int, window time.Duration, allow middleware.AllowFunc) gin.HandlerFunc {
	rdb := container.GetRedis()
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	l := cache.NewAttemptLimiter(rdb, prefix, max, window)
	return middleware.RateLimit(l, middleware.KeyByIP(), allow, container.GetLogger())
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	d := buildAuthDeps()
	session := middleware.Auth(d.Service, d.Cookies)

	r.Engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ProjectFocus backend is running.")
	})

	r.Add(modules.NewAuthModule(d.Auth, session, limiter("rl:signup:", cfg.SignupRatePerMinute, time.Minute, nil)))
	r.Add(modules.NewUserModule(d.Users, session, limiter("rl:search:", 120, time.Minute, nil)))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter("rl:debug:", 120, time.Minute, middleware.AllowPrivateIP())))
	}
}
