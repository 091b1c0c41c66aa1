package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestWrapErr(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, wrapErr("op", nil))
	})

	t.Run("no rows is record not found", func(t *testing.T) {
		err := wrapErr("get journey", fmt.Errorf("scan: %w", pgx.ErrNoRows))
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		err := wrapErr("create transport", &pgconn.PgError{Code: pgUniqueViolation})
		assert.ErrorIs(t, err, domain.ErrConflict)

		var perr *domain.PersistenceError
		assert.ErrorAs(t, err, &perr)
		assert.Equal(t, "create transport", perr.Op)
	})

	t.Run("foreign key violation is a conflict", func(t *testing.T) {
		err := wrapErr("delete flight", &pgconn.PgError{Code: pgForeignKeyViolation})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("other errors are persistence failures", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := wrapErr("insert journey", cause)

		var perr *domain.PersistenceError
		assert.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, domain.ErrConflict)
	})
}

func TestConn_PrefersTransactionFromContext(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.Equal(t, executor(pool), conn(context.Background(), pool))
	assert.Nil(t, txFromContext(context.Background()))
}
