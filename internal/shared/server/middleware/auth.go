package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/auth"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/telemetry"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Auth requires a bearer token and stores the resolved identity in context.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, apperr.KindAuthentication, "Missing or invalid authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, apperr.KindAuthentication, "Missing or invalid authorization header")
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			detail := "Invalid token"
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				detail = "Token has expired"
			case errors.Is(err, auth.ErrInvalidToken):
			default:
				telemetry.Error("auth.verify_failed", map[string]any{
					"request_id": RequestIDFromContext(c),
					"err":        err,
				})
				detail = "Authentication failed"
			}
			respond.Error(c, http.StatusUnauthorized, apperr.KindAuthentication, detail)
			return
		}

		c.Set(userIDKey, id.UserID)
		if id.Email != "" {
			c.Set(userEmailKey, id.Email)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
