package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP sets the client IP into Gin context (key: "real_ip").
// Forwarding headers are honoured only when trustProxy is set, otherwise
// any client could pick the IP its login attempts are counted against.
// Priority with trustProxy:
// 1) CF-Connecting-IP
// 2) X-Forwarded-For (left-most)
// 3) X-Real-IP
// then c.ClientIP().
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if trustProxy {
			if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
				c.Set("real_ip", ip)
				c.Next()
				return
			}
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := parseIP(first); ip != "" {
					c.Set("real_ip", ip)
					c.Next()
					return
				}
			}
			if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
				c.Set("real_ip", ip)
				c.Next()
				return
			}
		}
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}

func parseIP(s string) string {
	if ip := net.ParseIP(strings.TrimSpace(s)); ip != nil {
		return ip.String()
	}
	return ""
}

// ClientIP returns the address RealIP stored, falling back to gin's view.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
