package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/auth"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewJWTVerifier("test-secret", "authenticated", false)
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	router := gin.New()
	router.Use(Auth(verifier))
	router.GET("/api/analysis/roles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFromContext(c), "email": UserEmailFromContext(c)})
	})
	router.OPTIONS("/api/analysis/roles", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, verifier
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/analysis/roles", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analysis/roles", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["kind"] != "authentication_error" {
		t.Fatalf("unexpected kind %q", body["kind"])
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	router, verifier := newAuthRouter(t)
	token, err := verifier.Sign("user-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["detail"] != "Token has expired" {
		t.Fatalf("unexpected detail %q", body["detail"])
	}
}

func TestAuthSetsUserID(t *testing.T) {
	router, verifier := newAuthRouter(t)
	token, _ := verifier.Sign("user-42", "u@example.com", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["user"] != "user-42" || body["email"] != "u@example.com" {
		t.Fatalf("unexpected identity %+v", body)
	}
}

func TestCronGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CronGuard("s3cret", []string{"192.0.2.0/24"}))
	router.POST("/api/cron/run", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		secret string
		remote string
		want   int
	}{
		{name: "ok", secret: "s3cret", remote: "192.0.2.10:1234", want: http.StatusOK},
		{name: "bad secret", secret: "nope", remote: "192.0.2.10:1234", want: http.StatusUnauthorized},
		{name: "outside network", secret: "s3cret", remote: "198.51.100.7:1234", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cron/run", nil)
			req.Header.Set("X-Cron-Secret", tt.secret)
			req.RemoteAddr = tt.remote
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestCronGuardIgnoresForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CronGuard("", []string{"10.0.0.0/8"}))
	router.POST("/api/cron/run", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/cron/run", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	req.Header.Set("X-Real-IP", "10.1.2.3")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for spoofed forwarding header, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/cron/run", nil)
	req.RemoteAddr = "10.9.8.7:4000"
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from inside the network, got %d", resp.Code)
	}
}

func TestCronGuardDeniesWhenNoCIDRParses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CronGuard("", []string{"10.0.0.0/33", "not-a-cidr"}))
	router.POST("/api/cron/run", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, remote := range []string{"203.0.113.9:4000", "10.1.2.3:4000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/cron/run", nil)
		req.RemoteAddr = remote
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 with an unusable allowlist, got %d", remote, resp.Code)
		}
	}
}
