package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tiongMax/stocktracker/internal/config"
	"github.com/tiongMax/stocktracker/internal/processor"
	"github.com/tiongMax/stocktracker/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	slog.Info("Starting Processor Service...", "brokers", brokers, "topic", cfg.Kafka.Topic)
	consumer, err := processor.NewConsumer(brokers, cfg.Kafka.Topic)
	if err != nil {
		slog.Error("Failed to connect to Kafka", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		slog.Error("Processor stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Processor stopped", "counts", consumer.Counts())
}
