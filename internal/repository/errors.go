package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

// DuplicateError reports a unique constraint violation. Constraint names the
// violated constraint so callers can tell username and email clashes apart.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return "duplicate value violates " + e.Constraint
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// asDuplicate converts a pq unique violation into *DuplicateError and returns
// any other error unchanged.
func asDuplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &DuplicateError{Constraint: pqErr.Constraint, Err: err}
	}
	return err
}
