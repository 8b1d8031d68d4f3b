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
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	// Extraction service contract. Mode and the personal-data flag are part
	// of the external API and have changed across revisions; both are
	// configuration, not code.
	ExtractorURL        string
	ExtractorMode       string
	ExtractorSendPII    bool
	ExtractorTimeout    time.Duration
	SignedURLTTL        time.Duration
	MinExtractedChars   int
	CriteriaMismatch    string
	RubricVersion       string
	LLMProvider         string
	LLMModel            string
	OpenAIAPIKey        string
	OpenAITimeout       time.Duration
	AdminEmails         []string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURL   string
	UIRedirectURL       string
}

// Criteria mismatch policies. Strict raises a consistency error when the
// model's criteria keys don't match the rubric; fill_defaults substitutes a
// "Sin análisis" entry per missing key (legacy behavior).
const (
	CriteriaMismatchStrict       = "strict"
	CriteriaMismatchFillDefaults = "fill_defaults"
)

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
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		ExtractorURL:      getEnv("EXTRACTOR_URL", ""),
		ExtractorMode:     getEnv("EXTRACTOR_MODE", "raw_text"),
		ExtractorSendPII:  getEnvBool("EXTRACTOR_NEED_PERSONAL_DATA", false),
		ExtractorTimeout:  getEnvDuration("EXTRACTOR_TIMEOUT", 60*time.Second),
		SignedURLTTL:      getEnvDuration("SIGNED_URL_TTL", 30*time.Minute),
		MinExtractedChars: getEnvInt("MIN_EXTRACTED_CHARS", 100),
		CriteriaMismatch:  normalizeCriteriaMismatch(getEnv("CRITERIA_MISMATCH_POLICY", CriteriaMismatchStrict)),
		RubricVersion:     getEnv("RUBRIC_VERSION", "v3"),
		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4.1-2025-04-14"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout:     getEnvDuration("OPENAI_TIMEOUT", 120*time.Second),

		AdminEmails:        splitAndTrim(getEnv("ADMIN_EMAILS", "")),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
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
		log.Printf("config env %s invalid int: %v", key, err)
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
		log.Printf("config env %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
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

func normalizeCriteriaMismatch(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CriteriaMismatchFillDefaults:
		return CriteriaMismatchFillDefaults
	default:
		return CriteriaMismatchStrict
	}
}
