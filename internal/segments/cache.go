// Package segments keeps the current catalog snapshot.
//
// A snapshot is reused until it is ttl old and then replaced wholesale by a
// fresh fetch. Readers never see a half-built snapshot: a refresh builds the
// new value completely and publishes it with a single atomic store. A failed
// refresh publishes nothing and the old snapshot is not served in its place.
package segments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/airjourney/internal/catalog"
	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/Domenick1991/airjourney/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 30 * time.Minute

type Source interface {
	Fetch(ctx context.Context) ([]catalog.RawFlight, error)
}

type TransportResolver interface {
	Resolve(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error)
}

// SharedStore is a snapshot tier shared between instances.
type SharedStore interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
	SetSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}

type SnapshotProvider interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

type Cache struct {
	source     Source
	transports TransportResolver
	shared     SharedStore
	ttl        time.Duration
	key        string
	now        func() time.Time
	logger     *slog.Logger

	current atomic.Pointer[domain.Snapshot]
	group   singleflight.Group
}

type Option func(*Cache)

func WithSharedStore(store SharedStore) Option {
	return func(c *Cache) {
		c.shared = store
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithKey names the catalog for refresh deduplication. Caches for different
// catalogs in one process need different keys.
func WithKey(key string) Option {
	return func(c *Cache) {
		c.key = key
	}
}

func NewCache(source Source, transports TransportResolver, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		source:     source,
		transports: transports,
		ttl:        ttl,
		key:        "catalog",
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetSnapshot returns the current snapshot, refreshing it first when it is
// missing or at least ttl old.
func (c *Cache) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if s := c.current.Load(); s != nil && c.fresh(s) {
		telemetry.SnapshotRequests.WithLabelValues("hit").Inc()
		return s, nil
	}
	return c.load(ctx, false)
}

// Refresh fetches the catalog regardless of the age of the current snapshot.
func (c *Cache) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	return c.load(ctx, true)
}

// Current returns the last published snapshot without refreshing it.
func (c *Cache) Current() *domain.Snapshot {
	return c.current.Load()
}

func (c *Cache) fresh(s *domain.Snapshot) bool {
	return s.Age(c.now()) < c.ttl
}

type loaded struct {
	snapshot *domain.Snapshot
	result   string
}

func (c *Cache) load(ctx context.Context, force bool) (*domain.Snapshot, error) {
	// The flight outlives any single caller.
	flightCtx := context.WithoutCancel(ctx)

	// forced refreshes never join a plain load
	key := c.key
	if force {
		key += ":force"
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if !force {
			if s := c.current.Load(); s != nil && c.fresh(s) {
				return loaded{s, "hit"}, nil
			}
			if s := c.fromShared(flightCtx); s != nil {
				return loaded{s, "shared"}, nil
			}
		}
		s, err := c.refresh(flightCtx)
		if err != nil {
			return nil, err
		}
		return loaded{s, "refreshed"}, nil
	})
	if err != nil {
		telemetry.SnapshotRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	l := v.(loaded)
	telemetry.SnapshotRequests.WithLabelValues(l.result).Inc()
	return l.snapshot, nil
}

// fromShared adopts a snapshot from the shared tier when it is still fresh.
// Shared tier errors only cost a source fetch.
func (c *Cache) fromShared(ctx context.Context) *domain.Snapshot {
	if c.shared == nil {
		return nil
	}
	s, err := c.shared.GetSnapshot(ctx)
	if err != nil {
		c.logger.Warn("shared snapshot unavailable", "error", err)
		return nil
	}
	if s == nil || !c.fresh(s) {
		return nil
	}
	c.current.Store(s)
	return s
}

func (c *Cache) refresh(ctx context.Context) (_ *domain.Snapshot, err error) {
	ctx, span := otel.Tracer("airjourney/segments").Start(ctx, "segments.refresh")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, err := c.source.Fetch(ctx)
	if err != nil {
		telemetry.SnapshotRefreshes.WithLabelValues(refreshResult(err)).Inc()
		c.logger.Error("catalog refresh failed", "error", err)
		return nil, err
	}

	flights, err := c.assemble(ctx, raw)
	if err != nil {
		telemetry.SnapshotRefreshes.WithLabelValues(refreshResult(err)).Inc()
		c.logger.Error("catalog refresh failed", "error", err)
		return nil, err
	}

	snapshot := domain.NewSnapshot(flights, c.now())
	c.current.Store(snapshot)
	span.SetAttributes(attribute.Int("catalog.segments", snapshot.Len()))
	telemetry.SnapshotRefreshes.WithLabelValues("ok").Inc()
	c.logger.Info("catalog refreshed", "segments", snapshot.Len())

	if c.shared != nil {
		if err := c.shared.SetSnapshot(ctx, snapshot); err != nil {
			c.logger.Warn("failed to share snapshot", "error", err)
		}
	}
	return snapshot, nil
}

// assemble turns raw records into segments, resolving each (carrier, flight
// number) pair once per refresh.
func (c *Cache) assemble(ctx context.Context, raw []catalog.RawFlight) ([]domain.Flight, error) {
	type code struct{ carrier, number string }
	resolved := make(map[code]domain.Transport)

	flights := make([]domain.Flight, 0, len(raw))
	for i, r := range raw {
		if r.Price == nil {
			return nil, &domain.CatalogFormatError{Index: i, Field: "Price", Err: errors.New("missing")}
		}

		k := code{r.FlightCarrier, r.FlightNumber}
		transport, ok := resolved[k]
		if !ok {
			t, err := c.transports.Resolve(ctx, r.FlightCarrier, r.FlightNumber)
			if err != nil {
				return nil, fmt.Errorf("resolve transport %s %s: %w", r.FlightCarrier, r.FlightNumber, err)
			}
			transport = *t
			resolved[k] = transport
		}

		flights = append(flights, domain.Flight{
			Origin:      r.DepartureStation,
			Destination: r.ArrivalStation,
			Price:       *r.Price,
			Transport:   transport,
		})
	}
	return flights, nil
}

func refreshResult(err error) string {
	var formatErr *domain.CatalogFormatError
	switch {
	case errors.As(err, &formatErr):
		return "format_error"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return "source_unavailable"
	default:
		return "error"
	}
}

var _ SnapshotProvider = (*Cache)(nil)
