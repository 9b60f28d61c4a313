// Package respond writes JSON bodies. Every error body is {kind, detail}.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/telemetry"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, kind apperr.Kind, detail string) {
	fields := map[string]any{
		"status":     status,
		"kind":       string(kind),
		"detail":     detail,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Kind:   string(kind),
		Detail: detail,
	})
}

// AppError maps a classified error to its status and body. The underlying
// cause is logged and never sent to the client.
func AppError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		telemetry.Error("http.internal", map[string]any{
			"request_id": c.GetString("requestId"),
			"path":       c.Request.URL.Path,
			"err":        err,
		})
	}
	Error(c, apperr.HTTPStatus(kind), kind, apperr.DetailOf(err))
}

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}
