package record

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrEntityEmpty is returned when no entity name is given.
	ErrEntityEmpty = errors.New("entity name cannot be empty")
	// ErrRecordNotFound is returned when no record of the entity has the id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidID is returned when an id is not a positive integer.
	ErrInvalidID = errors.New("invalid record id")
)
