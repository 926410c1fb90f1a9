package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/toolsascode/wildebeest/internal/app"
	"github.com/toolsascode/wildebeest/internal/config"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queuefactory"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.Queue.Enabled {
		logger.Fatalf("Queue is not enabled. Set WB_QUEUE_ENABLED=true to use the worker")
	}

	engine, err := app.NewEngine(cfg, registry.GlobalRegistry)
	if err != nil {
		logger.Fatalf("Failed to initialize engine: %v", err)
	}

	q, err := queuefactory.NewQueue(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to create queue: %v", err)
	}

	w := worker.NewWorker(engine.Executor, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := w.Start(ctx); err != nil {
			logger.Errorf("Worker error: %v", err)
		}
		cancel()
	}()

	logger.Info("Wildebeest worker started. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	logger.Info("Shutting down worker...")
	cancel()

	if err := w.Stop(); err != nil {
		logger.Errorf("Error stopping worker: %v", err)
	}

	logger.Info("Worker stopped")
}
