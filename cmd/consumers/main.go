package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhub/internal/app"
	"eventhub/internal/config"
	"eventhub/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Broker == "memory" {
		logger.Fatal("The in-memory broker does not cross processes; run the API with BROKER=memory instead")
	}

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "eventhub-consumers"

	components, err := app.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", "error", err)
	}

	consumerService := components.Consumers()
	if err := consumerService.Start(); err != nil {
		components.Close()
		logger.Fatal("Failed to start consumers", "error", err)
	}

	slog.Info("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down consumers service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	components.Close()

	slog.Info("Consumers service stopped")
}
