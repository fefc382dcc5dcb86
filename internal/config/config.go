package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	LogLevel    string
	Environment string

	// FrontendURL is the only origin allowed by CORS.
	FrontendURL string

	Provider        string
	HFToken         string
	HFBaseURL       string
	TokenSecretName string
	AWSRegion       string

	Model       string
	StreamModel string
	MaxTokens   int
	Temperature float64

	RedisURL     string
	OTLPEndpoint string

	RatePerMinute   int
	CacheTTL        time.Duration
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

var ErrMissingToken = errors.New("HF_TOKEN or HF_TOKEN_SECRET_NAME is required for the huggingface provider")

func Load() (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("ADDR", ":5000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		Provider:        getEnv("PROVIDER", "huggingface"),
		HFToken:         getEnv("HF_TOKEN", ""),
		HFBaseURL:       getEnv("HF_BASE_URL", "https://router.huggingface.co/v1"),
		TokenSecretName: getEnv("HF_TOKEN_SECRET_NAME", ""),
		AWSRegion:       getEnv("AWS_REGION", ""),
		Model:           getEnv("MODEL", "meta-llama/Llama-4-Scout-17B-16E-Instruct:novita"),
		StreamModel:     getEnv("STREAM_MODEL", "meta-llama/Llama-3.1-8B-Instruct:novita"),
		MaxTokens:       getIntEnv("MAX_TOKENS", 500),
		Temperature:     getFloatEnv("TEMPERATURE", 0.7),
		RedisURL:        getEnv("REDIS_URL", ""),
		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", ""),
		RatePerMinute:   getIntEnv("RATE_LIMIT_PER_MINUTE", 10),
		CacheTTL:        getDurationEnv("CACHE_TTL_SECONDS", 24*time.Hour),
		MaxBodyBytes:    int64(getIntEnv("MAX_BODY_BYTES", 10<<20)),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.Provider == "huggingface" && cfg.HFToken == "" && cfg.TokenSecretName == "" {
		return nil, ErrMissingToken
	}

	return cfg, nil
}

// Development reports whether diagnostic detail may be included in error
// responses.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
