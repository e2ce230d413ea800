package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/pkg/helpers"
	"github.com/projectfocus/focus-api/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// Authenticator is implemented by *application.AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*application.Session, error)
}

// Auth requires a valid session cookie. On success it sets userID and
// sessionID in the Gin context.
func Auth(auth Authenticator, cookie *helpers.SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := cookie.Read(c)
		if !ok {
			response.Error(c, string(application.KindTokenInvalid), "Not authenticated.", nil)
			return
		}
		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, string(application.KindOf(err)), application.PublicMessage(err), nil)
			return
		}
		c.Set(CtxUserIDKey, sess.UserID)
		c.Set(CtxSessionIDKey, sess.TokenID)
		c.Next()
	}
}
