package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/batch"
	"skillgap-backend/internal/llm"
	anthropicllm "skillgap-backend/internal/llm/anthropic"
	geminillm "skillgap-backend/internal/llm/gemini"
	openaillm "skillgap-backend/internal/llm/openai"
	"skillgap-backend/internal/market"
	"skillgap-backend/internal/pipeline"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/queue"
	"skillgap-backend/internal/reports"
	"skillgap-backend/internal/services/health"
	"skillgap-backend/internal/shared/auth"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/server"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/storage/db"
	"skillgap-backend/internal/shared/storage/object"
	localstore "skillgap-backend/internal/shared/storage/object/local"
	s3store "skillgap-backend/internal/shared/storage/object/s3"
	"skillgap-backend/internal/shared/telemetry"
	"skillgap-backend/internal/users"
)

// devStubKey lets key selection succeed when dev runs on the stub provider.
const devStubKey = "dev-stub-key"

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Notifier queue.Client

	ProfilesRepo profiles.Repo
	AnalysesRepo analyses.Repo
	ReportsRepo  reports.Repo
	UsersRepo    users.Repo

	ProfilesService *profiles.Service
	MarketService   *market.Service
	AnalysesService *analyses.Service
	ReportsService  *reports.Service
	UsersService    *users.Service
	Pipeline        *pipeline.Service
	Batch           *batch.Runner

	closers []io.Closer
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	notifier, closers, err := buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Notifier = notifier
	app.closers = closers

	if err := buildServices(ctx, app); err != nil {
		_ = app.Close()
		return nil, err
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	deps := server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		Health:          health.NewService(pingerOrNil(sqlDB), cfg.ObjectStoreType, cfg.LLMProvider),
		GenerateHandler: pipeline.NewHandler(app.Pipeline),
		ProfileHandler:  profiles.NewHandler(app.ProfilesService),
		AnalysisHandler: analyses.NewHandler(app.AnalysesService),
		ReportHandler:   reports.NewHandler(app.ReportsService),
		BatchHandler:    batch.NewHandler(app.Batch),
		UserHandler:     users.NewHandler(app.UsersService),
		RateLimiter:     middleware.NewRateLimiter(nil),
	}
	if local, ok := store.(*localstore.Store); ok {
		deps.LocalFilesDir = local.Dir()
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close releases broker connections and the database pool.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.Close(a.DB); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func pingerOrNil(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if config.IsDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			PresignTTL:      cfg.S3PresignTTL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

// buildNotifier returns nil when no target is configured.
func buildNotifier(ctx context.Context, cfg config.Config) (queue.Client, []io.Closer, error) {
	var (
		targets queue.Fanout
		closers []io.Closer
	)
	if strings.TrimSpace(cfg.NotifySQSQueueURL) != "" {
		sqsClient, err := queue.NewSQSClient(ctx, cfg.NotifySQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("sqs notifier: %w", err)
		}
		targets = append(targets, sqsClient)
	}
	if strings.TrimSpace(cfg.NotifyAMQPURL) != "" {
		amqpClient, err := queue.NewAMQPClient(cfg.NotifyAMQPURL, cfg.NotifyAMQPExchange, cfg.NotifyAMQPRoutingKey)
		if err != nil {
			if !config.IsDevLike(cfg.Env) {
				return nil, nil, fmt.Errorf("amqp notifier: %w", err)
			}
			telemetry.Warn("bootstrap.amqp_disabled", map[string]any{"error": err.Error()})
		} else {
			targets = append(targets, amqpClient)
			closers = append(closers, amqpClient)
		}
	}
	switch len(targets) {
	case 0:
		return nil, closers, nil
	case 1:
		return targets[0], closers, nil
	default:
		return targets, closers, nil
	}
}

func buildVerifier(cfg config.Config) (auth.Verifier, error) {
	if cfg.AuthMode == "remote" {
		return auth.NewRemoteVerifier(cfg.AuthUserURL, cfg.AuthAPIKey)
	}
	return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience, config.IsDevLike(cfg.Env))
}

// buildLLM picks the provider client. In dev without any key the stub client
// answers with the bundled sample analysis.
func buildLLM(cfg config.Config, systemKey string) (llm.Client, string, error) {
	if systemKey == "" && config.IsDevLike(cfg.Env) {
		telemetry.Warn("bootstrap.llm_stub", map[string]any{"provider": cfg.LLMProvider})
		return llm.StubClient{Text: analyses.SampleJSON}, devStubKey, nil
	}
	switch cfg.LLMProvider {
	case "anthropic":
		c, err := anthropicllm.NewClient(cfg.LLMModel, "")
		return c, systemKey, err
	case "openai":
		c, err := openaillm.NewClient(cfg.LLMModel, cfg.LLMTimeout)
		return c, systemKey, err
	default:
		c, err := geminillm.NewClient(cfg.LLMModel)
		return c, systemKey, err
	}
}

// systemKey prefers configuration and falls back to the admin_api_keys row.
func systemKey(ctx context.Context, cfg config.Config, repo profiles.Repo) string {
	if key := strings.TrimSpace(cfg.LLMAPIKey); key != "" {
		return key
	}
	key, err := repo.AdminKey(ctx, cfg.LLMProvider, "api_key")
	if err != nil {
		if !errors.Is(err, profiles.ErrNotFound) {
			telemetry.Warn("bootstrap.admin_key_unavailable", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
		}
		return ""
	}
	return strings.TrimSpace(key)
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var (
		profileRepo  profiles.Repo
		marketRepo   market.Repo
		analysisRepo analyses.Repo
		reportRepo   reports.Repo
		userRepo     users.Repo
		batchRepo    batch.Repo
		writer       pipeline.Writer
	)
	if app.DB != nil {
		profileRepo = &profiles.PGRepo{DB: app.DB}
		marketRepo = &market.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		reportRepo = &reports.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		batchRepo = &batch.PGRepo{DB: app.DB}
		writer = &pipeline.PGWriter{DB: app.DB}
	} else {
		memAnalyses := analyses.NewMemoryRepo()
		memReports := reports.NewMemoryRepo()
		profileRepo = profiles.NewMemoryRepo()
		marketRepo = market.NewMemoryRepo()
		analysisRepo = memAnalyses
		reportRepo = memReports
		userRepo = users.NewMemoryRepo()
		batchRepo = batch.NewMemoryRepo()
		writer = &pipeline.MemoryWriter{Analyses: memAnalyses, Reports: memReports}
	}

	vault, err := profiles.NewKeyVault(cfg.APIKeyEncryptionKey, config.IsDevLike(cfg.Env))
	if err != nil {
		return err
	}
	profileSvc := profiles.NewService(profileRepo, vault)
	marketSvc := market.NewService(marketRepo)
	userSvc := users.NewService(userRepo)

	client, key, err := buildLLM(cfg, systemKey(ctx, cfg, profileRepo))
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	requester := analyses.NewRequester(client, profileSvc, analyses.RequesterConfig{
		Provider:            cfg.LLMProvider,
		Model:               cfg.LLMModel,
		SystemAPIKey:        key,
		Temperature:         cfg.LLMTemperature,
		MaxTokens:           cfg.LLMMaxOutputTokens,
		Timeout:             cfg.LLMTimeout,
		FallbackToSystemKey: cfg.LLMFallbackToSystemKey,
	})

	pipe := pipeline.NewService(
		&analyses.Aggregator{Profiles: profileSvc, Market: marketSvc},
		requester,
		reports.NewPublisher(app.Store),
		writer,
		userSvc,
		app.Notifier,
	)

	runner := batch.NewRunner(pipe, profileRepo, analysisRepo, marketSvc, batchRepo)
	runner.Schedule = cfg.BatchSchedule
	runner.SkipUnchanged = cfg.BatchSkipUnchanged

	app.ProfilesRepo = profileRepo
	app.AnalysesRepo = analysisRepo
	app.ReportsRepo = reportRepo
	app.UsersRepo = userRepo
	app.ProfilesService = profileSvc
	app.MarketService = marketSvc
	app.AnalysesService = analyses.NewService(analysisRepo)
	app.ReportsService = reports.NewService(reportRepo)
	app.UsersService = userSvc
	app.Pipeline = pipe
	app.Batch = runner
	return nil
}
