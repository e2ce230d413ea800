package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token between server and browser.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
}

func NewSessionCookie(name, domain string, secure bool) *SessionCookie {
	if name == "" {
		name = "token"
	}
	return &SessionCookie{Name: name, Domain: domain, Secure: secure}
}

// Set attaches token as an HttpOnly, SameSite=Strict cookie living ttl.
func (m *SessionCookie) Set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.Name, token, maxAgeFrom(ttl), "/", m.Domain, m.Secure, true)
}

// Read returns the token from the request; absence is not an error.
func (m *SessionCookie) Read(c *gin.Context) (string, bool) {
	v, err := c.Cookie(m.Name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (m *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(ttl time.Duration) int {
	sec := int(ttl / time.Second)
	if sec < 0 {
		return 0
	}
	return sec
}
