package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/projectfocus/focus-api/internal/interface/http"
)

// UserModule serves the photographer directory. Every route needs a session.
type UserModule struct {
	Handler *handlers.UserHandler
	Session gin.HandlerFunc
	Limit   gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, session, limit gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Session: session, Limit: limit}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users", m.Session, m.Limit)
	users.GET("/search", m.Handler.SearchUsers)
}
