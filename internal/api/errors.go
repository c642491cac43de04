package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation is returned for operations the client does not implement.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrMissingID is returned when getOne, update or delete is called without an id.
	ErrMissingID = errors.New("missing id")

	// ErrEmptyBaseURL is returned when an HTTP client is created without a base URL.
	ErrEmptyBaseURL = errors.New("api base url is empty")
)

// StatusError is returned when the backend answers with a non 2xx status. Its message is the response body.
type StatusError struct {
	Op         Operation
	Entity     string
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}

	return fmt.Sprintf("%s %s failed with status %d", e.Op, e.Entity, e.StatusCode)
}
