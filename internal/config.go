package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Predictor backends.
const (
	PredictorHTTP = "http"
	PredictorMock = "mock"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Public base URL, used for Secure cookies when it is https
	BaseURL string

	// Prediction service
	Predictor         string // "http" or "mock"
	PredictionURL     string
	PredictionTimeout time.Duration // 0 disables the client-side timeout

	// Sessions
	SessionIdleTimeout time.Duration

	// Rate limiting for POST /predict
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Metrics endpoint authentication
	// If all are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername     string
	MetricsPassword     string
	MetricsPasswordHash string // bcrypt hash, takes precedence over MetricsPassword
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		Predictor:         strings.ToLower(getEnv("PREDICTOR", PredictorHTTP)),
		PredictionURL:     getEnv("PREDICTION_URL", "http://127.0.0.1:8000/predict/churn"),
		PredictionTimeout: getEnvDuration("PREDICTION_TIMEOUT", 30*time.Second),

		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		MetricsUsername:     getEnv("METRICS_USERNAME", ""),
		MetricsPassword:     getEnv("METRICS_PASSWORD", ""),
		MetricsPasswordHash: getEnv("METRICS_PASSWORD_HASH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Predictor {
	case PredictorHTTP:
		u, err := url.Parse(c.PredictionURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("PREDICTION_URL must be an absolute http(s) URL, got: %s", c.PredictionURL)
		}
	case PredictorMock:
	default:
		return fmt.Errorf("PREDICTOR must be either 'http' or 'mock', got: %s", c.Predictor)
	}

	if c.PredictionTimeout < 0 {
		return fmt.Errorf("PREDICTION_TIMEOUT must not be negative")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsDevelopment reports whether ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare integers are seconds
		if s, err := strconv.Atoi(value); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return fallback
}
