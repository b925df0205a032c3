package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/carrerakart/kartapi/pkg/httpx"
)

type Config struct {
	JWTSecret string        // Required: HMAC secret for token signing
	Issuer    string        // Optional: issuer claim for tokens (default: kartapi)
	TokenTTL  time.Duration // Optional: access token lifetime (default: 168h)

	AdminName     string // Optional: bootstrap admin display name (default: Administrator)
	AdminEmail    string // Optional: bootstrap admin email (default: admin@kartodromo.local)
	AdminPassword string // Required on first run: bootstrap admin password

	DatabaseFile string   // Optional: path to SQLite database file (default: ./kartapi.db)
	CORSOrigins  []string // Optional: allowed CORS origins, space delimited (default: *)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret: os.Getenv("JWT_SECRET"),
		Issuer:    getEnvOrDefault("JWT_ISSUER", "kartapi"),
		TokenTTL:  getEnvDurationOrDefault("JWT_TTL", 7*24*time.Hour),

		AdminName:     getEnvOrDefault("ADMIN_NAME", "Administrator"),
		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", "admin@kartodromo.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "kartapi.db"),
		CORSOrigins:  httpx.ParseSpaceDelimitedFields(getEnvOrDefault("CORS_ORIGINS", "*")),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
