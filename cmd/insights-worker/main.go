package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spese-insights/internal/amqp"
	"spese-insights/internal/backend"
	"spese-insights/internal/cache"
	"spese-insights/internal/cli"
	"spese-insights/internal/config"
	applog "spese-insights/internal/log"
	"spese-insights/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting insights-worker")
	cli.ValidateConfig(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = applog.WithContext(ctx, logger)

	// Initialize the expense source
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	source, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer source.Close()

	engine, err := cli.NewEngine(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize insights engine", applog.FieldError, err)
		os.Exit(1)
	}
	defer engine.Close()

	// Periodic eviction of expired classifications
	cacheManager := cache.NewManager()
	if engine.Cleaner != nil {
		cacheManager.Register("classification", engine.Cleaner)
		cacheManager.StartCleanup(5 * time.Minute)
	}
	defer cacheManager.Stop()

	// Initialize AMQP client for consuming requests
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPReplyQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	insightWorker := worker.NewInsightWorker(engine.Engine, source.Backend, amqpClient, cfg.WorkerTimeout)

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := amqpClient.ConsumeRequests(ctx, cfg.WorkerConcurrency, insightWorker.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	// Give in-flight requests time to finish
	logger.Info("Shutting down worker...")
	cancel()

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
