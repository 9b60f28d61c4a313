package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/api/analysis/latest", func(c *gin.Context) {
		panic("nil analysis")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"kind":"internal_error","detail":"unexpected server error"}`, resp.Body.String())
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestRecoveryAfterPartialWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/files/report.pdf", func(c *gin.Context) {
		c.String(http.StatusOK, "%PDF-1.4")
		panic("stream broke")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/files/report.pdf", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "%PDF-1.4", resp.Body.String())
}
