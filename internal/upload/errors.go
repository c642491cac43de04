package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge is returned by CheckFile when the file exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileTypeNotAllowed is returned by CheckFile when the content type is not allowed.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
)

// Error is returned by HTTPUploader when the upload endpoint answers with a non 2xx status.
type Error struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Body != "" {
		return e.Body
	}

	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}
