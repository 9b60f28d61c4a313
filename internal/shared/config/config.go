package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType   string
	LocalStoreDir     string
	PublicBaseURL     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
	S3UsePathStyle    bool
	S3PresignTTL      time.Duration
	SSEKMSKeyID       string

	LLMProvider            string
	LLMModel               string
	LLMAPIKey              string
	LLMTimeout             time.Duration
	LLMTemperature         float64
	LLMMaxOutputTokens     int
	LLMFallbackToSystemKey bool

	AuthMode    string
	JWTSecret   string
	JWTAudience string
	AuthUserURL string
	AuthAPIKey  string

	APIKeyEncryptionKey string

	GenerateRatePerMin float64
	GenerateRateBurst  int

	CronSecret         string
	CronAllowedCIDRs   []string
	BatchSchedule      string
	BatchSkipUnchanged bool

	NotifySQSQueueURL    string
	NotifyAMQPURL        string
	NotifyAMQPExchange   string
	NotifyAMQPRoutingKey string
}

// Load reads configuration from environment variables with sensible defaults.
// Values from .env files and an optional TOML file (CONFIG_FILE) only fill
// variables that are not already set.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadTOMLFile(path); err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "gemini"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,

		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", "skillgap-reports"),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		S3UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		S3PresignTTL:      getEnvDuration("S3_PRESIGN_TTL", 7*24*time.Hour),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:            provider,
		LLMModel:               getEnv("LLM_MODEL", defaultModel(provider)),
		LLMAPIKey:              firstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("GEMINI_API_KEY")),
		LLMTimeout:             getEnvDuration("LLM_TIMEOUT", 150*time.Second),
		LLMTemperature:         getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxOutputTokens:     getEnvInt("LLM_MAX_OUTPUT_TOKENS", 8000),
		LLMFallbackToSystemKey: getEnvBool("LLM_FALLBACK_TO_SYSTEM_KEY", true),

		AuthMode:    normalizeAuthMode(getEnv("AUTH_MODE", "jwt")),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTAudience: getEnv("JWT_AUDIENCE", "authenticated"),
		AuthUserURL: getEnv("AUTH_USER_URL", ""),
		AuthAPIKey:  getEnv("AUTH_API_KEY", ""),

		APIKeyEncryptionKey: getEnv("API_KEY_ENCRYPTION_KEY", ""),

		GenerateRatePerMin: getEnvFloat("GENERATE_RATE_PER_MIN", 2),
		GenerateRateBurst:  getEnvInt("GENERATE_RATE_BURST", 3),

		CronSecret:         getEnv("CRON_SECRET", ""),
		CronAllowedCIDRs:   splitAndTrim(getEnv("CRON_ALLOWED_CIDRS", "")),
		BatchSchedule:      getEnv("BATCH_SCHEDULE", "0 4 * * 0"),
		BatchSkipUnchanged: getEnvBool("BATCH_SKIP_UNCHANGED", true),

		NotifySQSQueueURL:    getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		NotifyAMQPURL:        getEnv("NOTIFY_AMQP_URL", ""),
		NotifyAMQPExchange:   getEnv("NOTIFY_AMQP_EXCHANGE", "skillgap"),
		NotifyAMQPRoutingKey: getEnv("NOTIFY_AMQP_ROUTING_KEY", "report.generated"),
	}
}

// IsDevLike reports whether env allows in-memory fallbacks and dev secrets.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool: %v", key, err)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid duration: %q", key, raw)
		return def
	}
	return val
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "anthropic", "claude":
		return "anthropic"
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}

func normalizeAuthMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote":
		return "remote"
	default:
		return "jwt"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5"
	case "openai":
		return "gpt-4o-mini"
	default:
		return "gemini-2.5-flash"
	}
}
