package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.POST("/api/analysis/generate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCORSPreflightOnGenerate(t *testing.T) {
	router := corsRouter("http://localhost:5173/")

	req := httptest.NewRequest(http.MethodOptions, "/api/analysis/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", resp.Header().Get("Access-Control-Max-Age"))
}

func TestCORSHeadersOnPost(t *testing.T) {
	router := corsRouter("http://localhost:5173")

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Contains(t, resp.Header().Values("Vary"), "Origin")
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	router := corsRouter("http://localhost:5173")

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/generate", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	router := corsRouter("*")

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/generate", nil)
	req.Header.Set("Origin", "https://app.example")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, "https://app.example", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Credentials"))
}
