package repository

import (
	"errors"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// wrapErr maps driver errors onto the domain taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	if isConstraintViolation(err) {
		return errors.Join(domain.ErrConflict, &domain.PersistenceError{Op: op, Err: err})
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation || pgErr.Code == pgForeignKeyViolation
}
