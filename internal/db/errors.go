package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPersistence matches every PersistenceError via errors.Is
var ErrPersistence = errors.New("persistence error")

// ErrNotFound is wrapped when an update or lookup targets a missing row
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail is wrapped by the in-memory store when the unique email index rejects a write
var ErrDuplicateEmail = errors.New("duplicate email")

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict
const uniqueViolation = "23505"

// PersistenceError is returned by every store operation that fails
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: failed to %s: %v", ErrPersistence, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: failed to %s", ErrPersistence, e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrPersistence
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistenceErr(op string, err error) error {
	return &PersistenceError{Op: op, Cause: err}
}

// IsUniqueViolation reports whether err came from a unique index, such as two
// candidates with the same email.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrDuplicateEmail) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
