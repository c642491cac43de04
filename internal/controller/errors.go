package controller

import "errors"

var (
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("controller is closed")

	// ErrSuperseded is returned by Load when a newer load started before it completed; its result was discarded.
	ErrSuperseded = errors.New("load superseded by a newer one")
)
