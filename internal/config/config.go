// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAnalyticsURL = "http://localhost:5000"
	defaultCORSOrigins  = "http://localhost:3000,http://localhost:5173"
)

// Config service settings.
type Config struct {
	Port string

	AnalyticsURL     string
	AnalyticsTimeout time.Duration

	// CacheTTL of zero disables response caching.
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HistoryPath is the SQLite file for action history; empty disables it.
	HistoryPath string

	SessionTTL time.Duration

	ForecastModel  string
	ForecastPeriod int

	CORSOrigins []string

	AccessCode  string
	TokenSecret string

	LogLevel  string
	LogPretty bool
}

// Load reads .env files when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	cfg.Port = getEnvString("PORT", "8080")

	cfg.AnalyticsURL = getEnvString("ANALYTICS_API_URL", getEnvString("PYTHON_SERVICE_URL", defaultAnalyticsURL))
	cfg.AnalyticsTimeout = getEnvDuration("ANALYTICS_TIMEOUT", 60*time.Second)

	cfg.CacheTTL = getEnvDuration("CACHE_TTL", 0)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.HistoryPath = getEnvString("HISTORY_PATH", "")
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 30*time.Minute)

	cfg.ForecastModel = getEnvString("FORECAST_MODEL", "arima")
	cfg.ForecastPeriod = getEnvInt("FORECAST_PERIOD", 30)

	cfg.CORSOrigins = splitList(getEnvString("CORS_ORIGINS", defaultCORSOrigins))

	cfg.AccessCode = getEnvString("ACCESS_CODE", "")
	cfg.TokenSecret = getEnvString("TOKEN_SECRET", "")

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogPretty = getEnvBool("LOG_PRETTY", false)

	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.AnalyticsURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("ANALYTICS_API_URL must be an http(s) URL, got %q", c.AnalyticsURL))
	}
	if c.AnalyticsTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ANALYTICS_TIMEOUT must be positive, got %s", c.AnalyticsTimeout))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must not be negative, got %s", c.SessionTTL))
	}
	if c.ForecastPeriod <= 0 {
		errs = append(errs, fmt.Errorf("FORECAST_PERIOD must be positive, got %d", c.ForecastPeriod))
	}

	return errors.Join(errs...)
}

// AuthEnabled reports whether the access code gate is on.
func (c *Config) AuthEnabled() bool {
	return c.AccessCode != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// env helpers
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
