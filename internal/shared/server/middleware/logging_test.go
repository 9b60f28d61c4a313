package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/auth"
	"skillgap-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier, _ := auth.NewJWTVerifier("test-secret", "", false)
	token, _ := verifier.Sign("user-1", "", time.Hour)

	router := gin.New()
	router.Use(RequestID(), Auth(verifier), Logging())
	router.POST("/api/analysis/generate", func(c *gin.Context) {
		c.Set("analysisId", "analysis-1")
		c.Set("reportId", "report-1")
		c.Set("apiKeySource", "system")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "analysis_id", "report_id", "api_key_source", "duration_ms", "status"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["user_id"] != "user-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["analysis_id"] != "analysis-1" {
		t.Fatalf("unexpected analysis_id: %v", payload["analysis_id"])
	}
	if payload["api_key_source"] != "system" {
		t.Fatalf("unexpected api_key_source: %v", payload["api_key_source"])
	}
}
