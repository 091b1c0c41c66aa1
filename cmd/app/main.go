package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airjourney/config"
	"github.com/Domenick1991/airjourney/internal/bootstrap"
	"github.com/Domenick1991/airjourney/internal/cache"
	"github.com/Domenick1991/airjourney/internal/catalog"
	"github.com/Domenick1991/airjourney/internal/kafka"
	"github.com/Domenick1991/airjourney/internal/repository"
	"github.com/Domenick1991/airjourney/internal/segments"
	"github.com/Domenick1991/airjourney/internal/service/flights"
	"github.com/Domenick1991/airjourney/internal/service/journeys"
	"github.com/Domenick1991/airjourney/internal/service/transports"
	"github.com/Domenick1991/airjourney/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.InitTracing(cfg.Telemetry)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Minute, cfg.Catalog.TTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.JourneysTopic, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.Warn("kafka unavailable, journey events will be dropped", "error", err)
	}

	txManager := repository.NewTxManager(pool)
	transportRepo := repository.NewTransportRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	journeyRepo := repository.NewJourneyRepository(pool)

	registry := transports.NewRegistry(transportRepo)
	flightService := flights.NewFlightService(flightRepo, transportRepo, redisCache)

	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout())
	segmentCache := segments.NewCache(catalogClient, registry, cfg.Catalog.TTL(),
		segments.WithSharedStore(redisCache),
		segments.WithKey(catalogClient.URL()),
		segments.WithLogger(logger),
	)

	journeyService := journeys.NewJourneyService(journeyRepo, flightRepo, registry, txManager, segmentCache,
		journeys.WithMaxHops(cfg.Journey.MaxHops),
		journeys.WithPublisher(producer),
		journeys.WithLogger(logger),
	)

	svc := bootstrap.Services{
		Journeys:   journeyService,
		Flights:    flightService,
		Transports: registry,
		Catalog:    segmentCache,
		Checks: map[string]bootstrap.HealthCheck{
			"postgres": pool.Ping,
			"redis":    redisCache.Ping,
		},
	}

	if err := bootstrap.Run(ctx, cfg, svc, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
