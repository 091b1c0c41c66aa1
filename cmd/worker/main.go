package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airjourney/config"
	"github.com/Domenick1991/airjourney/internal/audit"
	"github.com/Domenick1991/airjourney/internal/cache"
	"github.com/Domenick1991/airjourney/internal/catalog"
	"github.com/Domenick1991/airjourney/internal/kafka"
	"github.com/Domenick1991/airjourney/internal/repository"
	"github.com/Domenick1991/airjourney/internal/segments"
	"github.com/Domenick1991/airjourney/internal/service/transports"
	"github.com/Domenick1991/airjourney/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	logger := telemetry.NewLogger(cfg.Log.Level).With("process", "worker")
	slog.SetDefault(logger)

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

	registry := transports.NewRegistry(repository.NewTransportRepository(pool))
	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout())
	segmentCache := segments.NewCache(catalogClient, registry, cfg.Catalog.TTL(),
		segments.WithSharedStore(redisCache),
		segments.WithKey(catalogClient.URL()),
		segments.WithLogger(logger),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.JourneysTopic)
	defer consumer.Close()

	recorder := audit.NewRecorder(logger)

	go func() {
		err := consumer.ConsumeJourneyEvents(ctx, recorder.Record, func(msg kafkaGo.Message, err error) {
			logger.Warn("skipping journey event", "offset", msg.Offset, "error", err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
		}
	}()

	warmup(ctx, segmentCache, logger)

	warmupTicker := time.NewTicker(time.Duration(cfg.Worker.WarmupMinutes) * time.Minute)
	defer warmupTicker.Stop()

	for {
		select {
		case <-warmupTicker.C:
			warmup(ctx, segmentCache, logger)
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}

// warmup refreshes the catalog ahead of expiry so API instances find a
// fresh snapshot in the shared tier. Failures wait for the next tick.
func warmup(ctx context.Context, cache *segments.Cache, logger *slog.Logger) {
	snapshot, err := cache.Refresh(ctx)
	if err != nil {
		logger.Error("catalog warmup failed", "error", err)
		return
	}
	logger.Info("catalog warmed", "segments", snapshot.Len(), "fetched_at", snapshot.FetchedAt)
}
