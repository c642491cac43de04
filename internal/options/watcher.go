package options

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// EntityOptions is the state exposed by EntityOptionsWatcher.
type EntityOptions struct {
	Schema  entity.Schema
	Table   entity.TableConfig
	Loading bool
	Error   string
}

// EntityOptionsWatcher fetches the options of one entity at a time. Changing the entity refetches;
// results of a fetch superseded by a newer one, or finishing after Close, are dropped.
type EntityOptionsWatcher struct {
	client   api.Client
	onChange func(EntityOptions)

	mu      sync.Mutex
	entity  string
	started bool
	seq     uint64
	closed  bool
	state   EntityOptions
}

// NewEntityOptionsWatcher creates a watcher. onChange may be nil.
func NewEntityOptionsWatcher(client api.Client, onChange func(EntityOptions)) *EntityOptionsWatcher {
	return &EntityOptionsWatcher{
		client:   client,
		onChange: onChange,
		state:    EntityOptions{Loading: true},
	}
}

// Set watches entityName, fetching its options unless it is already the watched entity.
func (w *EntityOptionsWatcher) Set(ctx context.Context, entityName string) {
	w.mu.Lock()
	if w.closed || (w.started && w.entity == entityName) {
		w.mu.Unlock()
		return
	}

	w.started = true
	w.entity = entityName
	w.seq++
	seq := w.seq
	w.state.Loading = true
	w.state.Error = ""
	state := w.state
	w.mu.Unlock()

	w.emit(state)

	opts, err := LoadEntityOptions(ctx, w.client, entityName)

	w.mu.Lock()
	if w.closed || seq != w.seq {
		w.mu.Unlock()
		log.Debug().Str("entity", entityName).Msg("dropping superseded options result")

		return
	}

	if err != nil {
		w.state = EntityOptions{Error: err.Error()}
	} else {
		w.state = EntityOptions{Schema: opts.Schema, Table: opts.Table}
	}

	state = w.state
	w.mu.Unlock()

	w.emit(state)
}

// State returns the current state.
func (w *EntityOptionsWatcher) State() EntityOptions {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// Close stops the watcher. In-flight results are discarded.
func (w *EntityOptionsWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
}

func (w *EntityOptionsWatcher) emit(s EntityOptions) {
	if w.onChange != nil {
		w.onChange(s)
	}
}

// RefState is the state exposed by RefOptions.
type RefState struct {
	Items   []entity.Option
	Loading bool
	Error   string
}

// RefOptions keeps the option list of one reference. Any change of the reference refetches;
// a nil reference yields an empty list. Nothing is cached across instances.
type RefOptions struct {
	client   api.Client
	onChange func(RefState)

	mu      sync.Mutex
	ref     *entity.Ref
	started bool
	seq     uint64
	closed  bool
	state   RefState
}

// NewRefOptions creates a reference watcher. onChange may be nil.
func NewRefOptions(client api.Client, onChange func(RefState)) *RefOptions {
	return &RefOptions{client: client, onChange: onChange}
}

// Set watches ref.
func (w *RefOptions) Set(ctx context.Context, ref *entity.Ref) {
	w.mu.Lock()
	if w.closed || (w.started && sameRef(w.ref, ref)) {
		w.mu.Unlock()
		return
	}

	w.started = true
	w.seq++
	seq := w.seq

	if ref == nil {
		w.ref = nil
		w.state = RefState{Items: []entity.Option{}}
		state := w.state
		w.mu.Unlock()

		w.emit(state)

		return
	}

	cp := *ref
	w.ref = &cp
	w.state.Loading = true
	w.state.Error = ""
	state := w.state
	w.mu.Unlock()

	w.emit(state)

	items, err := ResolveRef(ctx, w.client, cp)

	w.mu.Lock()
	if w.closed || seq != w.seq {
		w.mu.Unlock()
		log.Debug().Str("entity", cp.Entity).Msg("dropping superseded reference options")

		return
	}

	if err != nil {
		w.state = RefState{Items: w.state.Items, Error: err.Error()}
	} else {
		w.state = RefState{Items: items}
	}

	state = w.state
	w.mu.Unlock()

	w.emit(state)
}

// State returns the current state.
func (w *RefOptions) State() RefState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// Close stops the watcher. In-flight results are discarded.
func (w *RefOptions) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
}

func (w *RefOptions) emit(s RefState) {
	if w.onChange != nil {
		w.onChange(s)
	}
}

func sameRef(a, b *entity.Ref) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
