package journeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/Domenick1991/airjourney/internal/kafka"
	"github.com/Domenick1991/airjourney/internal/repository"
	"github.com/Domenick1991/airjourney/internal/route"
	"github.com/Domenick1991/airjourney/internal/segments"
	"github.com/Domenick1991/airjourney/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxHops        = 10
	DefaultPublishTimeout = 2 * time.Second
)

type JourneyUseCase interface {
	ResolveJourney(ctx context.Context, origin, destination string) (*domain.Journey, error)
	GetJourney(ctx context.Context, id int64) (*domain.Journey, error)
	ListJourneys(ctx context.Context) ([]domain.Journey, error)
	DeleteJourney(ctx context.Context, id int64) error
}

type EventPublisher interface {
	PublishJourneyEvent(ctx context.Context, event kafka.JourneyEvent) error
}

type JourneyService struct {
	journeys       repository.JourneyRepository
	flights        repository.FlightRepository
	transports     segments.TransportResolver
	tx             repository.Transactor
	snapshots      segments.SnapshotProvider
	finder         route.Finder
	maxHops        int
	publisher      EventPublisher
	publishTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

type JourneyServiceOption func(*JourneyService)

func WithPublisher(publisher EventPublisher) JourneyServiceOption {
	return func(s *JourneyService) {
		s.publisher = publisher
	}
}

func WithLogger(logger *slog.Logger) JourneyServiceOption {
	return func(s *JourneyService) {
		s.logger = logger
	}
}

func WithFinder(finder route.Finder) JourneyServiceOption {
	return func(s *JourneyService) {
		s.finder = finder
	}
}

func WithMaxHops(maxHops int) JourneyServiceOption {
	return func(s *JourneyService) {
		if maxHops > 0 {
			s.maxHops = maxHops
		}
	}
}

// WithPublishTimeout bounds each event publish on the request path.
func WithPublishTimeout(timeout time.Duration) JourneyServiceOption {
	return func(s *JourneyService) {
		if timeout > 0 {
			s.publishTimeout = timeout
		}
	}
}

func NewJourneyService(
	journeys repository.JourneyRepository,
	flights repository.FlightRepository,
	transports segments.TransportResolver,
	tx repository.Transactor,
	snapshots segments.SnapshotProvider,
	opts ...JourneyServiceOption,
) *JourneyService {
	service := &JourneyService{
		journeys:       journeys,
		flights:        flights,
		transports:     transports,
		tx:             tx,
		snapshots:      snapshots,
		finder:         route.NewFinder(),
		maxHops:        DefaultMaxHops,
		publishTimeout: DefaultPublishTimeout,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ResolveJourney returns the stored journey for the exact (origin,
// destination) pair, or searches the current catalog and stores the first
// route found. A stored journey is returned as is, however the catalog has
// changed since. domain.ErrNotAvailable means no route fits the hop budget;
// nothing is written in that case.
func (s *JourneyService) ResolveJourney(ctx context.Context, origin, destination string) (journey *domain.Journey, err error) {
	origin, destination = normalizeStation(origin), normalizeStation(destination)

	ctx, span := otel.Tracer("airjourney/journeys").Start(ctx, "journeys.resolve", trace.WithAttributes(
		attribute.String("journey.origin", origin),
		attribute.String("journey.destination", destination),
	))
	outcome := "error"
	defer func() {
		telemetry.JourneyResolutions.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("journey.outcome", outcome))
		if err != nil && outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := validateRoute(origin, destination); err != nil {
		outcome = "invalid"
		return nil, err
	}

	existing, err := s.journeys.FindByRoute(ctx, origin, destination)
	if err == nil {
		outcome = "memoized"
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	path, err := s.search(snapshot, origin, destination)
	if errors.Is(err, domain.ErrNotFound) {
		outcome = "not_available"
		s.logger.Info("no route available", "origin", origin, "destination", destination, "max_hops", s.maxHops)
		return nil, fmt.Errorf("%w: no route from %s to %s within %d hops", domain.ErrNotAvailable, origin, destination, s.maxHops)
	}
	if err != nil {
		return nil, err
	}

	stored, created, err := s.persist(ctx, domain.NewJourney(origin, destination, path))
	if err != nil {
		return nil, err
	}

	if created {
		outcome = "created"
		s.logger.Info("journey resolved", "journey_id", stored.ID, "origin", origin, "destination", destination, "hops", len(stored.Flights), "price", stored.Price)
		s.publish(ctx, kafka.EventJourneyResolved, stored)
	} else {
		outcome = "memoized"
	}
	return stored, nil
}

func (s *JourneyService) search(snapshot *domain.Snapshot, origin, destination string) ([]domain.Flight, error) {
	started := time.Now()
	path, err := s.finder.FindRoute(snapshot, origin, destination, s.maxHops)
	telemetry.RouteSearchDuration.Observe(time.Since(started).Seconds())

	switch {
	case err == nil:
		telemetry.RouteSearches.WithLabelValues("found").Inc()
	case errors.Is(err, domain.ErrNotFound):
		telemetry.RouteSearches.WithLabelValues("not_found").Inc()
	default:
		telemetry.RouteSearches.WithLabelValues("error").Inc()
	}
	return path, err
}

// persist stores the segments and the journey in one transaction.
// Transports are resolved again by carrier and flight number; the rows the
// snapshot captured may have been edited or removed. When a concurrent
// request stored the same route first, its journey is returned and created
// is false.
func (s *JourneyService) persist(ctx context.Context, journey *domain.Journey) (_ *domain.Journey, created bool, err error) {
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for i := range journey.Flights {
			flight := &journey.Flights[i]
			transport, err := s.transports.Resolve(ctx, flight.Transport.FlightCarrier, flight.Transport.FlightNumber)
			if err != nil {
				return err
			}
			flight.Transport = *transport
			if err := s.flights.Upsert(ctx, flight); err != nil {
				return err
			}
		}

		inserted, err := s.journeys.Insert(ctx, journey)
		if err != nil || !inserted {
			return err
		}
		created = true
		return s.journeys.LinkFlights(ctx, journey.ID, journey.Flights)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		return journey, true, nil
	}

	existing, err := s.journeys.FindByRoute(ctx, journey.Origin, journey.Destination)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *JourneyService) GetJourney(ctx context.Context, id int64) (*domain.Journey, error) {
	return s.journeys.GetByID(ctx, id)
}

func (s *JourneyService) ListJourneys(ctx context.Context) ([]domain.Journey, error) {
	return s.journeys.List(ctx)
}

// DeleteJourney removes a stored journey. The next ResolveJourney for its
// route searches the catalog again.
func (s *JourneyService) DeleteJourney(ctx context.Context, id int64) error {
	journey, err := s.journeys.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.journeys.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("journey deleted", "journey_id", id, "origin", journey.Origin, "destination", journey.Destination)
	s.publish(ctx, kafka.EventJourneyDeleted, journey)
	return nil
}

func (s *JourneyService) publish(ctx context.Context, eventType string, journey *domain.Journey) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishJourneyEvent(ctx, kafka.NewJourneyEvent(eventType, journey, s.now())); err != nil {
		s.logger.Warn("failed to publish journey event", "type", eventType, "journey_id", journey.ID, "error", err)
	}
}

func normalizeStation(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateRoute(origin, destination string) error {
	if origin == "" || destination == "" {
		return fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidRoute)
	}
	if origin == destination {
		return fmt.Errorf("%w: origin and destination must differ", domain.ErrInvalidRoute)
	}
	return nil
}

var _ JourneyUseCase = (*JourneyService)(nil)
