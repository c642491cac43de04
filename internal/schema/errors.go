package schema

import "errors"

var (
	// ErrUnknownClient is returned when no provider is registered for a client name.
	ErrUnknownClient = errors.New("no schema provider registered for client")

	// ErrNoSchema is returned when a provider has no schema document for an entity.
	ErrNoSchema = errors.New("no schema for entity")

	// ErrInvalidEntity is returned for entity names that cannot map to a schema document.
	ErrInvalidEntity = errors.New("invalid entity name")
)
