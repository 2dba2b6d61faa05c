// Package cli provides common initialization shared by cmd/insights and
// cmd/insights-worker.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"

	"spese-insights/internal/cache"
	"spese-insights/internal/classifier"
	"spese-insights/internal/config"
	"spese-insights/internal/insights"
	applog "spese-insights/internal/log"
)

// CacheKeyPrefix namespaces the classification cache in Redis.
const CacheKeyPrefix = "spese-insights:"

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the default. An unknown level falls back to info; Validate
// reports it.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *applog.Logger {
	logConfig := applog.DefaultConfig()
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		logConfig.Level = level
	}
	logConfig.Format = cfg.LogFormat
	logConfig.Component = component
	logConfig.Output = out

	logger := applog.New(logConfig)
	applog.SetDefault(logger)
	return logger
}

// ValidateConfig exits the process when cfg is invalid.
func ValidateConfig(logger *applog.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
}

// Engine is an insights engine with its classification cache.
type Engine struct {
	*insights.Engine
	// Cleaner evicts expired cache entries; nil when caching is off.
	Cleaner    cache.Cleaner
	closeCache func() error
}

// Close releases the cache connection.
func (e *Engine) Close() error {
	if e.closeCache == nil {
		return nil
	}
	return e.closeCache()
}

// NewEngine builds the engine described by cfg, including its cache.
func NewEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	built, err := cache.Build[classifier.Result](ctx, cache.Options{
		Backend:   cfg.CacheBackend,
		Size:      cfg.CacheSize,
		TTL:       cfg.CacheTTL,
		RedisAddr: cfg.RedisAddr,
		Prefix:    CacheKeyPrefix,
	})
	if err != nil {
		return nil, err
	}

	var opts []insights.Option
	if built.Cache != nil {
		opts = append(opts, insights.WithClassificationCache(built.Cache))
	}
	return &Engine{
		Engine:     insights.New(insights.FromAppConfig(cfg), opts...),
		Cleaner:    built.Cleaner,
		closeCache: built.Close,
	}, nil
}
