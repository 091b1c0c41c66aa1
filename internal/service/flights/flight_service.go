package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/Domenick1991/airjourney/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input FlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id int64, input FlightInput) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

// FlightCache holds the listing of stored segments. Writes invalidate it.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightInput struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
	TransportID int64   `json:"transport_id"`
}

func (in FlightInput) normalize() (FlightInput, error) {
	in.Origin = strings.ToUpper(strings.TrimSpace(in.Origin))
	in.Destination = strings.ToUpper(strings.TrimSpace(in.Destination))
	switch {
	case in.Origin == "" || in.Destination == "":
		return in, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidInput)
	case in.Origin == in.Destination:
		return in, fmt.Errorf("%w: origin and destination must differ", domain.ErrInvalidInput)
	case in.Price < 0:
		return in, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	case in.TransportID <= 0:
		return in, fmt.Errorf("%w: transport_id is required", domain.ErrInvalidInput)
	}
	return in, nil
}

type FlightService struct {
	repo       repository.FlightRepository
	transports repository.TransportRepository
	cache      FlightCache
}

func NewFlightService(repo repository.FlightRepository, transports repository.TransportRepository, cache FlightCache) *FlightService {
	return &FlightService{repo: repo, transports: transports, cache: cache}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, input FlightInput) (*domain.Flight, error) {
	flight, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) Update(ctx context.Context, id int64, input FlightInput) (*domain.Flight, error) {
	flight, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	flight.ID = id
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) build(ctx context.Context, input FlightInput) (*domain.Flight, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	transport, err := s.transports.GetByID(ctx, input.TransportID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: transport %d does not exist", domain.ErrInvalidInput, input.TransportID)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Flight{
		Origin:      input.Origin,
		Destination: input.Destination,
		Price:       input.Price,
		Transport:   *transport,
	}, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
