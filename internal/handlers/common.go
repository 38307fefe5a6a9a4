package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/auth"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// HealthCheck responds with service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AuthTokenMiddleware copies a bearer token from the Authorization header
// onto the request context for the identity provider.
func AuthTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			ctx := auth.WithToken(c.Request.Context(), token)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case services.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error(), Code: "unauthenticated"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: "not_found"})
	case services.IsAttemptGate(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error(), Code: "attempt_gate"})
	case services.IsInvalidState(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error(), Code: "invalid_state"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error", Details: err.Error()})
	}
}
