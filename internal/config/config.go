package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Payment processor
	ProcessorAPIURL string
	ProcessorAPIKey string
	// TestMode enables sandbox accommodations (e.g. placeholder phone
	// substitution on cardholder creation). Never enable in production.
	TestMode bool

	// Document store (Supabase PostgREST)
	StoreURL        string
	StoreAPIKey     string
	StoreServiceKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Owner lease
	LockBackend  string // "memory" or "store"
	LeaseTTL     time.Duration
	LeaseTimeout time.Duration

	// Cache (ownerId -> processorAccountId mapping only)
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT / ingress auth
	JWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ProcessorAPIURL: getEnv("PROCESSOR_API_URL", "https://api.processor.example.com"),
		ProcessorAPIKey: getEnv("PROCESSOR_API_KEY", ""),
		TestMode:        getEnv("PROCESSOR_TEST_MODE", "false") == "true",

		StoreURL:        getEnv("SUPABASE_URL", ""),
		StoreAPIKey:     getEnv("SUPABASE_ANON_KEY", ""),
		StoreServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		LockBackend:  getEnv("LOCK_BACKEND", "memory"),
		LeaseTTL:     getEnvDuration("LEASE_TTL", 30*time.Second),
		LeaseTimeout: getEnvDuration("LEASE_TIMEOUT", 5*time.Second),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret: getEnv("JWT_SECRET", "connect-default-dev-secret-change-me"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
