package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrDuplicate is returned when a record violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")

	// ErrConstraintViolation is returned for NOT NULL and CHECK failures or
	// for records missing required fields.
	ErrConstraintViolation = errors.New("persistence: constraint violation")

	// ErrForeignKeyViolation is returned when a referenced record is missing
	// or a referenced record would be removed.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
