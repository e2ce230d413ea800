package handlers

import (
	"errors"
	"expvar"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/internal/domain/entity"
	"github.com/projectfocus/focus-api/internal/interface/middleware"
	"github.com/projectfocus/focus-api/pkg/helpers"
	"github.com/projectfocus/focus-api/pkg/response"
	"github.com/projectfocus/focus-api/pkg/validation"
)

// authOutcomes counts signup/login results by kind, served at /api/debug/vars.
var authOutcomes = expvar.NewMap("auth_outcomes")

type AuthHandler struct {
	Svc     *application.AuthService
	Cookies *helpers.SessionCookie
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, cookies *helpers.SessionCookie, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type signupRequest struct {
	Name     string `json:"name" binding:"displayname"`
	Email    string `json:"email" binding:"loginemail"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"loginemail"`
	Password string `json:"password" binding:"required"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type userResponse struct {
	Message string            `json:"message,omitempty"`
	User    entity.PublicUser `json:"user"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	u, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, "signup", err)
		return
	}
	authOutcomes.Add("signup_ok", 1)
	c.JSON(http.StatusCreated, signupResponse{Message: "User registered successfully!", UserID: u.ID})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	h.Cookies.Set(c, res.Token.Value, res.Token.ExpiresAt.Sub(res.Token.IssuedAt))
	authOutcomes.Add("login_ok", 1)
	c.JSON(http.StatusOK, userResponse{Message: "Login successful!", User: res.User})
}

// Logout revokes the presented session, if any, and always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := h.Cookies.Read(c)
	h.Cookies.Clear(c)
	if err := h.Svc.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, "logout", err)
		return
	}
	response.Message(c, http.StatusOK, "Logged out.")
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.Svc.Me(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		h.fail(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: *u})
}

func (h *AuthHandler) invalidPayload(c *gin.Context, err error) {
	authOutcomes.Add(string(application.KindInvalidInput), 1)
	response.Error(c, string(application.KindInvalidInput), "Invalid input.", validation.ToDetails(err))
}

// fail writes err as an error body. Internal causes are logged, never sent.
func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	kind := application.KindOf(err)
	authOutcomes.Add(string(kind), 1)

	var ae *application.Error
	var details map[string]string
	if errors.As(err, &ae) {
		details = ae.Details
		if ae.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
		}
	}
	if kind == application.KindServiceUnavailable && h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"op":         op,
			"request_id": c.GetString("request_id"),
		}).Error("auth request failed")
	}
	response.Error(c, string(kind), application.PublicMessage(err), details)
}
