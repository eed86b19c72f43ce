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
	Port                 string
	CORSAllowOrigin      []string
	LogLevel             string
	ObjectStoreType      string
	LocalStoreDir        string
	AWSRegion            string
	S3Bucket             string
	S3Prefix             string
	SSEKMSKeyID          string
	LLMProvider          string
	LLMModel             string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	LLMTimeout           time.Duration
	LLMTransientRetries  int
	LLMRepairAttempts    int
	RoadmapSchemaVersion string
	DatabaseURL          string
	RedisAddr            string
	ViewStateTTL         time.Duration
	MindmapFontPath      string
	RateLimitLLM         int // requests per minute per user on LLM-backed routes
	RateLimitDefault     int // requests per minute per user elsewhere
	Env                  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		ObjectStoreType:      normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:            getEnv("AWS_REGION", ""),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Prefix:             getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:          getEnv("SSE_KMS_KEY_ID", ""),
		LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		LLMTimeout:           getDuration("LLM_TIMEOUT", 120*time.Second),
		LLMTransientRetries:  getInt("LLM_TRANSIENT_RETRIES", 0),
		LLMRepairAttempts:    getInt("LLM_REPAIR_ATTEMPTS", 0),
		RoadmapSchemaVersion: normalizeSchemaVersion(getEnv("ROADMAP_SCHEMA_VERSION", "v3")),
		DatabaseURL:          dbURL,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		ViewStateTTL:         getDuration("VIEW_STATE_TTL", 24*time.Hour),
		MindmapFontPath:      getEnv("MINDMAP_FONT", ""),
		RateLimitLLM:         getInt("RATE_LIMIT_LLM_PER_MIN", 10),
		RateLimitDefault:     getInt("RATE_LIMIT_DEFAULT_PER_MIN", 120),
		Env:                  env,
	}
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
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

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
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
	case "test":
		return "test"
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

func normalizeSchemaVersion(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "v1":
		return "v1"
	case "v2":
		return "v2"
	default:
		return "v3"
	}
}
