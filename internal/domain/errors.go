package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the flight catalog could not be fetched.
	ErrSourceUnavailable = errors.New("flight catalog unavailable")
	// ErrNotAvailable is the normal "no route" outcome of a journey resolution.
	ErrNotAvailable = errors.New("route not available")
	// ErrNotFound is returned by the route finder when no path fits the hop budget.
	ErrNotFound = errors.New("no path found")

	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidRoute     = errors.New("invalid route request")
	ErrInvalidHopBudget = errors.New("hop budget must be positive")
	// ErrRecordNotFound means a persisted entity does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrConflict means a write violated a uniqueness or reference constraint.
	ErrConflict = errors.New("conflicting record")
)

// CatalogFormatError reports a catalog record that failed validation.
// Index is -1 when the payload as a whole could not be decoded.
type CatalogFormatError struct {
	Index int
	Field string
	Err   error
}

func (e *CatalogFormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("catalog format: %v", e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("catalog format: record %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("catalog format: record %d field %s: %v", e.Index, e.Field, e.Err)
}

func (e *CatalogFormatError) Unwrap() error {
	return e.Err
}

// Is reports an undecodable payload as an unavailable source as well.
func (e *CatalogFormatError) Is(target error) bool {
	return e.Index < 0 && target == ErrSourceUnavailable
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
