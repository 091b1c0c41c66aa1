package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JourneyRepository interface {
	FindByRoute(ctx context.Context, origin, destination string) (*domain.Journey, error)
	GetByID(ctx context.Context, id int64) (*domain.Journey, error)
	List(ctx context.Context) ([]domain.Journey, error)
	// Insert stores the journey header and sets ID and CreatedAt. It reports
	// false, without error, when a journey for the route already exists.
	Insert(ctx context.Context, journey *domain.Journey) (bool, error)
	// LinkFlights records the ordered, already persisted flights of a journey.
	LinkFlights(ctx context.Context, journeyID int64, flights []domain.Flight) error
	Delete(ctx context.Context, id int64) error
}

type PGJourneyRepository struct {
	db *pgxpool.Pool
}

func NewJourneyRepository(db *pgxpool.Pool) JourneyRepository {
	return &PGJourneyRepository{db: db}
}

func (r *PGJourneyRepository) FindByRoute(ctx context.Context, origin, destination string) (*domain.Journey, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, origin, destination, price, created_at FROM journeys WHERE origin=$1 AND destination=$2`, origin, destination)
	return r.load(ctx, row, "find journey")
}

func (r *PGJourneyRepository) GetByID(ctx context.Context, id int64) (*domain.Journey, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, origin, destination, price, created_at FROM journeys WHERE id=$1`, id)
	return r.load(ctx, row, "get journey")
}

func (r *PGJourneyRepository) load(ctx context.Context, row pgx.Row, op string) (*domain.Journey, error) {
	var j domain.Journey
	if err := row.Scan(&j.ID, &j.Origin, &j.Destination, &j.Price, &j.CreatedAt); err != nil {
		return nil, wrapErr(op, err)
	}

	byJourney, err := r.flightsOf(ctx, []int64{j.ID})
	if err != nil {
		return nil, err
	}
	j.Flights = byJourney[j.ID]
	return &j, nil
}

func (r *PGJourneyRepository) List(ctx context.Context) ([]domain.Journey, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, origin, destination, price, created_at FROM journeys ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list journeys", err)
	}
	defer rows.Close()

	journeys := make([]domain.Journey, 0)
	for rows.Next() {
		var j domain.Journey
		if err := rows.Scan(&j.ID, &j.Origin, &j.Destination, &j.Price, &j.CreatedAt); err != nil {
			return nil, wrapErr("scan journey", err)
		}
		journeys = append(journeys, j)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list journeys", err)
	}
	if len(journeys) == 0 {
		return journeys, nil
	}

	ids := make([]int64, len(journeys))
	for i, j := range journeys {
		ids[i] = j.ID
	}
	byJourney, err := r.flightsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range journeys {
		journeys[i].Flights = byJourney[journeys[i].ID]
	}
	return journeys, nil
}

func (r *PGJourneyRepository) flightsOf(ctx context.Context, journeyIDs []int64) (map[int64][]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT jf.journey_id, `+flightColumns+`
		FROM journey_flights jf
		JOIN flights f ON f.id = jf.flight_id
		JOIN transports t ON t.id = f.transport_id
		WHERE jf.journey_id = ANY($1)
		ORDER BY jf.journey_id, jf.position`, journeyIDs)
	if err != nil {
		return nil, wrapErr("load journey flights", err)
	}
	defer rows.Close()

	byJourney := make(map[int64][]domain.Flight, len(journeyIDs))
	for rows.Next() {
		var journeyID int64
		var f domain.Flight
		if err := rows.Scan(&journeyID, &f.ID, &f.Origin, &f.Destination, &f.Price, &f.Transport.ID, &f.Transport.FlightCarrier, &f.Transport.FlightNumber, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, wrapErr("scan journey flight", err)
		}
		byJourney[journeyID] = append(byJourney[journeyID], f)
	}
	return byJourney, wrapErr("load journey flights", rows.Err())
}

func (r *PGJourneyRepository) Insert(ctx context.Context, journey *domain.Journey) (bool, error) {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO journeys (origin, destination, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (origin, destination) DO NOTHING
		RETURNING id, created_at`, journey.Origin, journey.Destination, journey.Price).
		Scan(&journey.ID, &journey.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("insert journey", err)
	}
	return true, nil
}

func (r *PGJourneyRepository) LinkFlights(ctx context.Context, journeyID int64, flights []domain.Flight) error {
	batch := &pgx.Batch{}
	for i, f := range flights {
		batch.Queue(`INSERT INTO journey_flights (journey_id, flight_id, position) VALUES ($1, $2, $3)`, journeyID, f.ID, i)
	}

	var results pgx.BatchResults
	if tx := txFromContext(ctx); tx != nil {
		results = tx.SendBatch(ctx, batch)
	} else {
		results = r.db.SendBatch(ctx, batch)
	}
	defer results.Close()

	for range flights {
		if _, err := results.Exec(); err != nil {
			return wrapErr("link journey flights", err)
		}
	}
	return nil
}

func (r *PGJourneyRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM journeys WHERE id=$1`, id)
	if err != nil {
		return wrapErr("delete journey", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

var _ JourneyRepository = (*PGJourneyRepository)(nil)
