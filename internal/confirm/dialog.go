// Package confirm implements a yes/no confirmation dialog whose pending request is owned by the dialog
// instance, so several dialogs never answer each other's questions.
package confirm

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Prompt texts. Empty fields fall back to the defaults.
type Prompt struct {
	Title       string
	Description string
	ConfirmText string
	CancelText  string
}

// WithDefaults fills the empty texts.
func (p Prompt) WithDefaults() Prompt {
	if p.Title == "" {
		p.Title = "Are you sure?"
	}

	if p.Description == "" {
		p.Description = "This action cannot be undone."
	}

	if p.ConfirmText == "" {
		p.ConfirmText = "Confirm"
	}

	if p.CancelText == "" {
		p.CancelText = "Cancel"
	}

	return p
}

// Request is an open confirmation.
type Request struct {
	ID     string
	Prompt Prompt
}

type pending struct {
	req    Request
	answer chan bool
}

// Dialog holds at most one pending request.
type Dialog struct {
	mu      sync.Mutex
	pending *pending
	onOpen  func(Request)
}

// NewDialog creates a dialog without an open request.
func NewDialog() *Dialog {
	return &Dialog{}
}

// OnOpen registers a callback invoked with every new request, typically to render it.
func (d *Dialog) OnOpen(fn func(Request)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onOpen = fn
}

// Ask opens a request and blocks until it is resolved or ctx is done. A request still pending when Ask is
// called again is answered false.
func (d *Dialog) Ask(ctx context.Context, p Prompt) (bool, error) {
	next := &pending{
		req:    Request{ID: uuid.NewString(), Prompt: p.WithDefaults()},
		answer: make(chan bool, 1),
	}

	d.mu.Lock()
	if d.pending != nil {
		d.pending.answer <- false
	}

	d.pending = next
	onOpen := d.onOpen
	d.mu.Unlock()

	if onOpen != nil {
		onOpen(next.req)
	}

	select {
	case ok := <-next.answer:
		return ok, nil
	case <-ctx.Done():
		d.mu.Lock()
		if d.pending == next {
			d.pending = nil
		}
		d.mu.Unlock()

		return false, ctx.Err()
	}
}

// Pending returns the open request, if any.
func (d *Dialog) Pending() (Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return Request{}, false
	}

	return d.pending.req, true
}

// Resolve answers the pending request with the given id.
func (d *Dialog) Resolve(id string, answer bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return ErrNoPending
	}

	if d.pending.req.ID != id {
		return ErrStaleRequest
	}

	d.pending.answer <- answer
	d.pending = nil

	return nil
}
