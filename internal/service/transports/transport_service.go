package transports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/Domenick1991/airjourney/internal/repository"
)

type TransportUseCase interface {
	List(ctx context.Context) ([]domain.Transport, error)
	GetByID(ctx context.Context, id int64) (*domain.Transport, error)
	Create(ctx context.Context, input TransportInput) (*domain.Transport, error)
	Update(ctx context.Context, id int64, input TransportInput) (*domain.Transport, error)
	Delete(ctx context.Context, id int64) error
	Resolve(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error)
}

type TransportInput struct {
	FlightCarrier string `json:"flight_carrier"`
	FlightNumber  string `json:"flight_number"`
}

func (in TransportInput) normalize() (TransportInput, error) {
	in.FlightCarrier = strings.TrimSpace(in.FlightCarrier)
	in.FlightNumber = strings.TrimSpace(in.FlightNumber)
	if in.FlightCarrier == "" || in.FlightNumber == "" {
		return in, fmt.Errorf("%w: flight carrier and flight number are required", domain.ErrInvalidInput)
	}
	return in, nil
}

// Registry owns transport identity: at most one row per (carrier, flight number).
type Registry struct {
	repo repository.TransportRepository
}

func NewRegistry(repo repository.TransportRepository) *Registry {
	return &Registry{repo: repo}
}

// Resolve returns the transport for the pair, creating it on first sighting.
// A concurrent creator winning the insert is not an error: the row it
// created is looked up and returned.
func (r *Registry) Resolve(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error) {
	existing, err := r.repo.FindByCode(ctx, carrier, flightNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	created := &domain.Transport{FlightCarrier: carrier, FlightNumber: flightNumber}
	inserted, err := r.repo.InsertIfAbsent(ctx, created)
	if err != nil {
		return nil, err
	}
	if inserted {
		return created, nil
	}
	return r.repo.FindByCode(ctx, carrier, flightNumber)
}

func (r *Registry) List(ctx context.Context) ([]domain.Transport, error) {
	return r.repo.List(ctx)
}

func (r *Registry) GetByID(ctx context.Context, id int64) (*domain.Transport, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *Registry) Create(ctx context.Context, input TransportInput) (*domain.Transport, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	t := &domain.Transport{FlightCarrier: input.FlightCarrier, FlightNumber: input.FlightNumber}
	if err := r.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Registry) Update(ctx context.Context, id int64, input TransportInput) (*domain.Transport, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	t := &domain.Transport{ID: id, FlightCarrier: input.FlightCarrier, FlightNumber: input.FlightNumber}
	if err := r.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Registry) Delete(ctx context.Context, id int64) error {
	return r.repo.Delete(ctx, id)
}

var _ TransportUseCase = (*Registry)(nil)
