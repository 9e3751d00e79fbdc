package config

import (
	"os"
	"strconv"

	"github.com/mongopad/mongopad/core/logger"
	"github.com/mongopad/mongopad/core/shared/errors"
)

// Config holds the runtime configuration resolved from the environment
type Config struct {
	// MongoURL is the connection string for the live MongoDB deployment
	// scripts execute against. Required.
	MongoURL string

	// DatabaseURL is the Postgres connection string for script and
	// execution history persistence. Optional: when empty the server
	// falls back to an in-memory store.
	DatabaseURL string

	// Port the HTTP server listens on
	Port string

	// LogLevel 1=ERROR 2=WARN 3=INFO 4=DEBUG
	LogLevel int
}

// Load resolves configuration from the environment. A missing MONGO_URL is
// fatal: the engine cannot bind scripts to a live handle without it.
func Load() (*Config, error) {
	log := logger.New("config")

	mongoURL := os.Getenv("MONGO_URL")
	if mongoURL == "" {
		return nil, errors.NewAppError(errors.ErrCodeConfiguration,
			"MONGO_URL environment variable is not set", nil)
	}

	cfg := &Config{
		MongoURL:    mongoURL,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),
		LogLevel:    logger.LogLevelInfo,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < logger.LogLevelError || level > logger.LogLevelDebug {
			log.Warnf("Ignoring invalid LOG_LEVEL %q", raw)
		} else {
			cfg.LogLevel = level
		}
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, scripts and history will not survive restarts")
	}

	return cfg, nil
}
