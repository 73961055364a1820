package store

import "errors"

// ErrNotFound is returned when a record does not exist. Ownership-scoped
// lookups return it for rows owned by someone else, so callers cannot
// distinguish "missing" from "not yours".
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a unique constraint.
var ErrConflict = errors.New("conflict")
