package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/shared/auth"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/telemetry"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                "dev",
		CORSAllowOrigin:    []string{"http://localhost:5173"},
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		PublicBaseURL:      "http://localhost:8080",
		LLMProvider:        "gemini",
		LLMModel:           "gemini-2.5-flash",
		LLMTimeout:         10 * time.Second,
		AuthMode:           "jwt",
		JWTAudience:        "authenticated",
		GenerateRatePerMin: 60,
		GenerateRateBurst:  10,
		BatchSchedule:      "0 4 * * 0",
	}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	v, err := auth.NewJWTVerifier("", "authenticated", true)
	require.NoError(t, err)
	token, err := v.Sign(userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, app *App, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestDevAppGeneratesEndToEnd(t *testing.T) {
	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	mem, ok := app.ProfilesRepo.(*profiles.MemoryRepo)
	require.True(t, ok)
	mem.SeedSkills("user-1", profiles.Skill{Name: "Go", Source: profiles.SourceGitHub, ConfidenceScore: 0.9})
	token := bearer(t, "user-1")

	rec := do(t, app, http.MethodPost, "/api/analysis/roles", token, `{"roles":["Backend Engineer"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, app, http.MethodPost, "/api/analysis/generate", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Status     string `json:"status"`
		AnalysisID string `json:"analysis_id"`
		ReportURL  string `json:"report_url"`
		Summary    struct {
			OverallFitScore int    `json:"overall_fit_score"`
			APIKeySource    string `json:"api_key_source"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 75, out.Summary.OverallFitScore)
	assert.Equal(t, "system", out.Summary.APIKeySource)

	u, err := url.Parse(out.ReportURL)
	require.NoError(t, err)
	rec = do(t, app, http.MethodGet, u.Path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(t, app, http.MethodGet, "/api/analysis/latest", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), out.AnalysisID)

	rec = do(t, app, http.MethodGet, "/api/analysis/reports", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), out.AnalysisID)
}

func TestDevAppRejectsMissingToken(t *testing.T) {
	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	rec := do(t, app, http.MethodGet, "/api/analysis/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"authentication_error"`)
}

func TestDevAppPublicRoutes(t *testing.T) {
	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	rec := do(t, app, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"memory"`)

	rec = do(t, app, http.MethodGet, "/api/cron/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
	assert.Contains(t, rec.Body.String(), `"schedule":"0 4 * * 0"`)

	rec = do(t, app, http.MethodPost, "/api/cron/run", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eligible":0`)

	rec = do(t, app, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skillgap_batch_runs_total")
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildLogsDevFallbacksAsJSON(t *testing.T) {
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	out := buf.String()
	assert.Contains(t, out, "bootstrap.memory_repositories")
	assert.Contains(t, out, "bootstrap.llm_stub")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var payload map[string]any
		assert.NoError(t, json.Unmarshal([]byte(line), &payload), line)
	}
}
