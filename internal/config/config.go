package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API
	HTTPHost        string
	HTTPPort        int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Rate limiting (token bucket shared by all API callers)
	RateLimitRPS   float64
	RateLimitBurst int

	// Sessions
	SessionDBPath   string
	SessionMaxBytes int64

	// Calculator limits
	LimitsPath string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPHost:        envStr("HTTP_HOST", "0.0.0.0"),
		HTTPPort:        envInt("HTTP_PORT", 8090),
		ShutdownTimeout: time.Duration(envInt("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		CORSOrigins:     envList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),

		SessionDBPath:   envStr("SESSION_DB_PATH", "data/sessions.db"),
		SessionMaxBytes: int64(envInt("SESSION_MAX_MB", 256)) << 20,

		LimitsPath: envStr("LIMITS_PATH", "internal/config/limits.yaml"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
