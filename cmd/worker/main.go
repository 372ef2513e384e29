package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"creditflow/internal/app"
	"creditflow/internal/platform/config"
	"creditflow/internal/platform/logger"
)

// main loads configuration, wires the worker and runs it until SIGINT or
// SIGTERM. Business logic lives in the internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}
	defer func() {
		if err := worker.Close(); err != nil {
			log.Error("shutdown cleanup failed", "error", err)
		}
	}()

	log.InfoContext(ctx, "starting creditflow worker",
		"service", cfg.Server.ServiceName,
		"addr", cfg.Server.Addr,
		"persistence", persistenceMode(cfg),
	)
	if err := worker.Run(ctx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	log.Info("creditflow worker stopped")
	return nil
}

func persistenceMode(cfg config.Config) string {
	if cfg.Database.URL == "" {
		return "memory"
	}
	return "postgres"
}
