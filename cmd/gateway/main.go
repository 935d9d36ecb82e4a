package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tiongMax/stocktracker/internal/aggregator"
	"github.com/tiongMax/stocktracker/internal/cache"
	"github.com/tiongMax/stocktracker/internal/config"
	"github.com/tiongMax/stocktracker/internal/events"
	"github.com/tiongMax/stocktracker/internal/gateway"
	"github.com/tiongMax/stocktracker/internal/health"
	"github.com/tiongMax/stocktracker/internal/httpx"
	"github.com/tiongMax/stocktracker/internal/news"
	"github.com/tiongMax/stocktracker/internal/store"
	"github.com/tiongMax/stocktracker/internal/upstream"
	"github.com/tiongMax/stocktracker/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	// 1. Configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	// 2. Database
	slog.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := store.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.AutoMigrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to database")

	// 3. Redis news cache (optional)
	var newsCache news.Cache
	var cachePing health.Checker
	if cfg.CacheEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.NewsTTL)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without news cache", "error", err)
		} else {
			defer redisClient.Close()
			newsCache = redisClient
			cachePing = redisClient
			slog.Info("Connected to Redis")
		}
	}

	// 4. Kafka watchlist events (optional)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.EventsEnabled() {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			slog.Warn("Kafka unavailable, watchlist events disabled", "error", err)
		} else {
			publisher = kafka
			slog.Info("Connected to Kafka", "topic", cfg.Kafka.Topic)
		}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Error closing Kafka producer", "error", err)
		}
	}()

	// 5. Upstream providers
	httpClient := httpx.New(2 * cfg.Upstream.Timeout)
	yahoo := upstream.NewYahoo(
		upstream.WithBaseURL(cfg.Upstream.YahooBaseURL),
		upstream.WithCookieURL(cfg.Upstream.YahooCookieURL),
		upstream.WithHTTPClient(httpClient),
	)
	agg := aggregator.New(yahoo,
		aggregator.WithTimeout(cfg.Upstream.Timeout),
		aggregator.WithHistoryDays(cfg.Upstream.HistoryDays),
	)

	var newsSource news.Source
	if cfg.News.APIKey != "" {
		newsSource = upstream.NewMarketaux(cfg.News.APIKey, upstream.WithBaseURL(cfg.News.BaseURL), upstream.WithHTTPClient(httpClient))
	} else {
		slog.Warn("NEWS_API_KEY not set, news endpoint disabled")
	}
	newsService := news.NewService(newsSource, newsCache, cfg.News.Limit, cfg.Upstream.Timeout)

	// 6. Health monitor
	monitor := health.NewMonitor(yahoo, cfg.Health.ProbeTicker, cfg.Upstream.Timeout)
	monitor.AddCheck("database", db, true)
	monitor.AddCheck("cache", cachePing, false)
	if err := monitor.Schedule(cfg.Health.ProbeSchedule); err != nil {
		slog.Error("Invalid health probe schedule", "schedule", cfg.Health.ProbeSchedule, "error", err)
		os.Exit(1)
	}
	go monitor.Probe(context.Background())
	monitor.Start()

	// 7. HTTP server
	gin.SetMode(gin.ReleaseMode)
	handler := gateway.NewHandler(agg, newsService, db, db, publisher, monitor)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           gateway.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("API Gateway listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// 8. Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("Shutting down API Gateway...")

	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("API Gateway stopped")
}
