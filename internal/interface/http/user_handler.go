package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/internal/domain/entity"
	"github.com/projectfocus/focus-api/pkg/response"
)

// UserSearcher is implemented by *search.UserIndex.
type UserSearcher interface {
	Search(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error)
}

type UserHandler struct {
	Search UserSearcher
	Logger *logrus.Logger
}

func NewUserHandler(s UserSearcher, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Search: s, Logger: logger}
}

type searchResponse struct {
	Users []entity.DirectoryEntry `json:"users"`
}

// SearchUsers looks photographers up by name or email.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, string(application.KindInvalidInput), "Invalid input.", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	if h.Search == nil {
		response.Error(c, string(application.KindServiceUnavailable), "Search is disabled.", nil)
		return
	}
	users, err := h.Search.Search(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user search failed")
		}
		response.Error(c, string(application.KindServiceUnavailable), "Service temporarily unavailable.", nil)
		return
	}
	if users == nil {
		users = []entity.DirectoryEntry{}
	}
	c.JSON(http.StatusOK, searchResponse{Users: users})
}
