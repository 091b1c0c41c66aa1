package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/airjourney/config"
	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
		catalogTTL: catalogTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// GetSnapshot returns the catalog snapshot shared between instances, or nil
// when none is stored.
func (c *RedisCache) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeSnapshot(data)
}

// SetSnapshot stores the snapshot for the rest of its freshness window.
// A snapshot already past the window is not stored.
func (c *RedisCache) SetSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	remaining := c.catalogTTL - snapshot.Age(time.Now())
	if remaining <= 0 {
		return nil
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(), payload, remaining).Err()
}

type snapshotPayload struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Flights   []domain.Flight `json:"flights"`
}

func encodeSnapshot(snapshot *domain.Snapshot) ([]byte, error) {
	return json.Marshal(snapshotPayload{FetchedAt: snapshot.FetchedAt, Flights: snapshot.Flights()})
}

func decodeSnapshot(data []byte) (*domain.Snapshot, error) {
	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.FetchedAt.IsZero() {
		return nil, errors.New("cached snapshot has no fetch time")
	}
	return domain.NewSnapshot(payload.Flights, payload.FetchedAt), nil
}

func flightsKey() string {
	return "cache:flights"
}

func snapshotKey() string {
	return "cache:catalog:snapshot"
}
