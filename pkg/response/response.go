package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Message   string            `json:"message"`
	Kind      string            `json:"kind"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// MessageBody is the JSON shape of a success that carries only text.
type MessageBody struct {
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	"InvalidInput":       http.StatusBadRequest,
	"EmailTaken":         http.StatusBadRequest,
	"DuplicateEmail":     http.StatusBadRequest,
	"InvalidCredentials": http.StatusUnauthorized,
	"TokenExpired":       http.StatusUnauthorized,
	"TokenInvalid":       http.StatusUnauthorized,
	"RateLimited":        http.StatusTooManyRequests,
	"ServiceUnavailable": http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusFor(kind string) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error writes an error body with the status for kind and aborts the chain.
func Error(ctx *gin.Context, kind, message string, details map[string]string) ErrorBody {
	body := ErrorBody{
		Message:   message,
		Kind:      kind,
		RequestID: ctx.GetString("request_id"),
		Details:   details,
	}
	ctx.AbortWithStatusJSON(StatusFor(kind), body)
	return body
}

// Message writes {"message": msg} with status.
func Message(ctx *gin.Context, status int, msg string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, MessageBody{Message: msg})
}
