package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"firstcome/internal/config"
	"firstcome/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialise app", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if runErr != nil {
		log.Error("server stopped with error", "error", runErr)
		os.Exit(1)
	}
	log.Info("server gracefully stopped")
}
