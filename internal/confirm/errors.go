package confirm

import "errors"

var (
	// ErrNoPending is returned by Resolve when no request is open.
	ErrNoPending = errors.New("no pending confirmation")

	// ErrStaleRequest is returned by Resolve for a request that is no longer the pending one.
	ErrStaleRequest = errors.New("confirmation request is no longer pending")
)
