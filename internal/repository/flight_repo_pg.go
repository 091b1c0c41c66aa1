package repository

import (
	"context"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	// Upsert stores the segment, or finds the stored row with the same
	// origin, destination, transport and price, and sets flight.ID.
	Upsert(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `f.id, f.origin, f.destination, f.price, t.id, t.flight_carrier, t.flight_number, f.created_at, f.updated_at`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+flightColumns+` FROM flights f JOIN transports t ON t.id = f.transport_id ORDER BY f.id`)
	if err != nil {
		return nil, wrapErr("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Origin, &f.Destination, &f.Price, &f.Transport.ID, &f.Transport.FlightCarrier, &f.Transport.FlightNumber, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, wrapErr("scan flight", err)
		}
		flights = append(flights, f)
	}
	return flights, wrapErr("list flights", rows.Err())
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+flightColumns+` FROM flights f JOIN transports t ON t.id = f.transport_id WHERE f.id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Origin, &f.Destination, &f.Price, &f.Transport.ID, &f.Transport.FlightCarrier, &f.Transport.FlightNumber, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, wrapErr("get flight", err)
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (origin, destination, price, transport_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, flight.Origin, flight.Destination, flight.Price, flight.Transport.ID).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	return wrapErr("create flight", err)
}

func (r *PGFlightRepository) Upsert(ctx context.Context, flight *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (origin, destination, price, transport_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (origin, destination, transport_id, price) DO UPDATE SET updated_at = now()
		RETURNING id, created_at, updated_at`, flight.Origin, flight.Destination, flight.Price, flight.Transport.ID).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	return wrapErr("upsert flight", err)
}

func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE flights
		SET origin=$1, destination=$2, price=$3, transport_id=$4, updated_at=now()
		WHERE id=$5
		RETURNING created_at, updated_at`, flight.Origin, flight.Destination, flight.Price, flight.Transport.ID, flight.ID).
		Scan(&flight.CreatedAt, &flight.UpdatedAt)
	return wrapErr("update flight", err)
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return wrapErr("delete flight", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
