package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/batch"
	"skillgap-backend/internal/pipeline"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/reports"
	"skillgap-backend/internal/services/health"
	"skillgap-backend/internal/shared/auth"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/storage/object/local"
	"skillgap-backend/internal/users"
)

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	Config          config.Config
	Verifier        auth.Verifier
	Health          *health.Service
	GenerateHandler *pipeline.Handler
	ProfileHandler  *profiles.Handler
	AnalysisHandler *analyses.Handler
	ReportHandler   *reports.Handler
	BatchHandler    *batch.Handler
	UserHandler     *users.Handler
	// LocalFilesDir is served under /files when the local store is active.
	LocalFilesDir string
	RateLimiter   *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"service": "skillgap-backend", "status": "running"})
	})
	r.GET("/metrics", metrics.Handler())
	if deps.LocalFilesDir != "" {
		r.Static(local.FilesRoute, deps.LocalFilesDir)
	}

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	authed := api.Group("", middleware.Auth(deps.Verifier))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(authed)
	}

	analysis := api.Group("/analysis", middleware.Auth(deps.Verifier))
	if deps.GenerateHandler != nil {
		deps.GenerateHandler.RegisterRoutes(analysis, middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": middleware.PerMinute(deps.Config.GenerateRatePerMin, deps.Config.GenerateRateBurst),
			},
			Limiter: deps.RateLimiter,
		}))
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(analysis)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(analysis)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.RegisterRoutes(analysis)
	}

	if deps.BatchHandler != nil {
		cron := api.Group("/cron", middleware.CronGuard(deps.Config.CronSecret, deps.Config.CronAllowedCIDRs))
		deps.BatchHandler.RegisterRoutes(cron)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
