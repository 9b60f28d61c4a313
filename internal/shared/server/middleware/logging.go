package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		analysisID, _ := c.Get("analysisId")
		reportID, _ := c.Get("reportId")
		apiKeySource, _ := c.Get("apiKeySource")

		telemetry.Info("request.complete", map[string]any{
			"request_id":     RequestIDFromContext(c),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         c.Writer.Status(),
			"duration_ms":    float64(latency.Microseconds()) / 1000.0,
			"user_id":        userID,
			"analysis_id":    analysisID,
			"report_id":      reportID,
			"api_key_source": apiKeySource,
			"client_ip":      c.ClientIP(),
			"user_agent":     c.Request.UserAgent(),
		})
	}
}
