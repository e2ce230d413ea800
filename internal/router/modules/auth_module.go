package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/projectfocus/focus-api/internal/interface/http"
)

// AuthModule serves /api/auth/*.
// Public: POST signup (per-IP limited), POST login, POST logout
// Protected: GET me
type AuthModule struct {
	Handler     *handlers.AuthHandler
	Session     gin.HandlerFunc
	SignupLimit gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, session, signupLimit gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Session: session, SignupLimit: signupLimit}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	// login attempts are limited per email and per IP inside the service
	auth.POST("/signup", m.SignupLimit, m.Handler.Signup)
	auth.POST("/login", m.Handler.Login)
	auth.POST("/logout", m.Handler.Logout)
	auth.GET("/me", m.Session, m.Handler.Me)
}
