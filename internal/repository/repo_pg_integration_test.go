//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: AIRJOURNEY_TEST_DSN=postgres://... go test -tags integration ./internal/repository/
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("AIRJOURNEY_TEST_DSN")
	if dsn == "" {
		t.Skip("AIRJOURNEY_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE journey_flights, journeys, flights, transports RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestIntegration_TransportInsertIfAbsent(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTransportRepository(pool)
	ctx := context.Background()

	first := &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"}
	inserted, err := repo.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, first.ID)

	second := &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"}
	inserted, err = repo.InsertIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := repo.FindByCode(ctx, "CO", "8001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	err = repo.Create(ctx, &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIntegration_JourneyKeepsPathOrder(t *testing.T) {
	pool := newTestPool(t)
	tx := NewTxManager(pool)
	transports := NewTransportRepository(pool)
	flights := NewFlightRepository(pool)
	journeys := NewJourneyRepository(pool)
	ctx := context.Background()

	transport := &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"}
	require.NoError(t, transports.Create(ctx, transport))

	// flights get ids in reverse path order, so only position can order them
	path := []domain.Flight{
		{Origin: "MDE", Destination: "BCN", Price: 500, Transport: *transport},
		{Origin: "BOG", Destination: "MDE", Price: 80, Transport: *transport},
		{Origin: "MZL", Destination: "BOG", Price: 100, Transport: *transport},
	}
	for i := range path {
		require.NoError(t, flights.Upsert(ctx, &path[i]))
	}
	path[0], path[2] = path[2], path[0]

	journey := domain.NewJourney("MZL", "BCN", path)
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inserted, err := journeys.Insert(ctx, journey)
		if err != nil {
			return err
		}
		require.True(t, inserted)
		return journeys.LinkFlights(ctx, journey.ID, journey.Flights)
	})
	require.NoError(t, err)

	stored, err := journeys.FindByRoute(ctx, "MZL", "BCN")
	require.NoError(t, err)
	require.Len(t, stored.Flights, 3)
	assert.Equal(t, []string{"MZL", "BOG", "MDE"}, []string{stored.Flights[0].Origin, stored.Flights[1].Origin, stored.Flights[2].Origin})
	assert.Equal(t, 680.0, stored.Price)
	assert.True(t, stored.Contiguous())

	list, err := journeys.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stored.Flights, list[0].Flights)

	duplicate := domain.NewJourney("MZL", "BCN", path)
	inserted, err := journeys.Insert(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestIntegration_FlightUpsertIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	transports := NewTransportRepository(pool)
	flights := NewFlightRepository(pool)
	ctx := context.Background()

	transport := &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"}
	require.NoError(t, transports.Create(ctx, transport))

	first := &domain.Flight{Origin: "MZL", Destination: "MDE", Price: 200, Transport: *transport}
	again := *first
	require.NoError(t, flights.Upsert(ctx, first))
	require.NoError(t, flights.Upsert(ctx, &again))

	assert.Equal(t, first.ID, again.ID)
}

func TestIntegration_RollbackDiscardsJourney(t *testing.T) {
	pool := newTestPool(t)
	tx := NewTxManager(pool)
	journeys := NewJourneyRepository(pool)
	ctx := context.Background()

	failure := errors.New("link failed")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := journeys.Insert(ctx, &domain.Journey{Origin: "MZL", Destination: "BCN", Price: 1}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = journeys.FindByRoute(ctx, "MZL", "BCN")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestIntegration_DeleteReferencedTransportConflicts(t *testing.T) {
	pool := newTestPool(t)
	transports := NewTransportRepository(pool)
	flights := NewFlightRepository(pool)
	ctx := context.Background()

	transport := &domain.Transport{FlightCarrier: "CO", FlightNumber: "8001"}
	require.NoError(t, transports.Create(ctx, transport))
	require.NoError(t, flights.Upsert(ctx, &domain.Flight{Origin: "MZL", Destination: "MDE", Price: 200, Transport: *transport}))

	err := transports.Delete(ctx, transport.ID)

	assert.ErrorIs(t, err, domain.ErrConflict)
	var perr *domain.PersistenceError
	assert.ErrorAs(t, err, &perr)
}
