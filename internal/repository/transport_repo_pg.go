package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransportRepository interface {
	List(ctx context.Context) ([]domain.Transport, error)
	GetByID(ctx context.Context, id int64) (*domain.Transport, error)
	FindByCode(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error)
	// InsertIfAbsent stores t and sets its ID. It reports false, without
	// error, when the (carrier, flight number) pair already exists.
	InsertIfAbsent(ctx context.Context, t *domain.Transport) (bool, error)
	Create(ctx context.Context, t *domain.Transport) error
	Update(ctx context.Context, t *domain.Transport) error
	Delete(ctx context.Context, id int64) error
}

type PGTransportRepository struct {
	db *pgxpool.Pool
}

func NewTransportRepository(db *pgxpool.Pool) TransportRepository {
	return &PGTransportRepository{db: db}
}

func (r *PGTransportRepository) List(ctx context.Context) ([]domain.Transport, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, flight_carrier, flight_number FROM transports ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list transports", err)
	}
	defer rows.Close()

	transports := make([]domain.Transport, 0)
	for rows.Next() {
		var t domain.Transport
		if err := rows.Scan(&t.ID, &t.FlightCarrier, &t.FlightNumber); err != nil {
			return nil, wrapErr("scan transport", err)
		}
		transports = append(transports, t)
	}
	return transports, wrapErr("list transports", rows.Err())
}

func (r *PGTransportRepository) GetByID(ctx context.Context, id int64) (*domain.Transport, error) {
	var t domain.Transport
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id, flight_carrier, flight_number FROM transports WHERE id=$1`, id).
		Scan(&t.ID, &t.FlightCarrier, &t.FlightNumber)
	if err != nil {
		return nil, wrapErr("get transport", err)
	}
	return &t, nil
}

func (r *PGTransportRepository) FindByCode(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error) {
	var t domain.Transport
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id, flight_carrier, flight_number FROM transports WHERE flight_carrier=$1 AND flight_number=$2`, carrier, flightNumber).
		Scan(&t.ID, &t.FlightCarrier, &t.FlightNumber)
	if err != nil {
		return nil, wrapErr("find transport", err)
	}
	return &t, nil
}

func (r *PGTransportRepository) InsertIfAbsent(ctx context.Context, t *domain.Transport) (bool, error) {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO transports (flight_carrier, flight_number)
		VALUES ($1, $2)
		ON CONFLICT (flight_carrier, flight_number) DO NOTHING
		RETURNING id`, t.FlightCarrier, t.FlightNumber).Scan(&t.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("insert transport", err)
	}
	return true, nil
}

func (r *PGTransportRepository) Create(ctx context.Context, t *domain.Transport) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO transports (flight_carrier, flight_number) VALUES ($1, $2) RETURNING id`,
		t.FlightCarrier, t.FlightNumber).Scan(&t.ID)
	return wrapErr("create transport", err)
}

func (r *PGTransportRepository) Update(ctx context.Context, t *domain.Transport) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE transports SET flight_carrier=$1, flight_number=$2 WHERE id=$3`,
		t.FlightCarrier, t.FlightNumber, t.ID)
	if err != nil {
		return wrapErr("update transport", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PGTransportRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM transports WHERE id=$1`, id)
	if err != nil {
		return wrapErr("delete transport", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

var _ TransportRepository = (*PGTransportRepository)(nil)
