// Package controller implements the entity controller: the query and result state of one entity listing,
// loaded either page by page from the backend (remote mode) or fetched once and searched, filtered, sorted
// and paginated in memory (local mode), plus the create, update, delete and export operations.
package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/upload"
)

// Mode selects where paging, filtering and sorting happen.
type Mode string

const (
	// ModeLocal fetches the whole collection and works on it in memory.
	ModeLocal Mode = "client"
	// ModeRemote delegates paging, search, sort and filters to the backend.
	ModeRemote Mode = "server"
)

// ParseMode accepts "client"/"local" and "server"/"remote".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "local":
		return ModeLocal, true
	case "server", "remote":
		return ModeRemote, true
	}

	return "", false
}

// Defaults.
const (
	DefaultPageSize       = 25
	DefaultRemoteDebounce = 300 * time.Millisecond
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Mode             Mode
	PreferredColumns []string
	MaxColumns       *int
	RefPageSize      int
	// ID scopes every load to one record.
	ID             any
	Filters        entity.Filters
	PageSize       int
	RemoteDebounce time.Duration
	LocalDebounce  time.Duration
	Materializer   *upload.Materializer
	// OnChange receives a snapshot after every state change. It may be called from the debounce timer.
	OnChange func(View)
}

type query struct {
	entity      string
	mode        Mode
	searchInput string
	search      string
	page        int
	pageSize    int
	sortKey     string
	sortDir     entity.SortDir
	filters     entity.Filters
}

type result struct {
	items   []entity.Row
	total   int
	fields  []string
	schema  entity.Schema
	table   entity.TableConfig
	loading bool
	err     string
}

// Controller owns the query and result state of one entity listing. It is safe for concurrent use.
type Controller struct {
	client       api.Client
	opts         Options
	materializer *upload.Materializer

	mu        sync.Mutex
	ctx       context.Context //nolint:containedctx
	q         query
	r         result
	loadSeq   uint64
	schemaSeq uint64
	searchGen uint64
	timer     *time.Timer
	closed    bool
}

// New creates a controller for entityName. Nothing is fetched until Start.
func New(entityName string, client api.Client, opts Options) *Controller {
	if opts.Mode == "" {
		opts.Mode = ModeLocal
	}

	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	if opts.RefPageSize <= 0 {
		opts.RefPageSize = entity.DefaultRefSize
	}

	if opts.RemoteDebounce <= 0 {
		opts.RemoteDebounce = DefaultRemoteDebounce
	}

	m := opts.Materializer
	if m == nil {
		m = upload.NewMaterializer(nil)
	}

	return &Controller{
		client:       client,
		opts:         opts,
		materializer: m,
		ctx:          context.Background(),
		q: query{
			entity:   entityName,
			mode:     opts.Mode,
			page:     1,
			pageSize: opts.PageSize,
			sortDir:  entity.SortAsc,
			filters:  opts.Filters.Clone(),
		},
		r: result{loading: true},
	}
}

// Start fetches the entity options, then runs the first load. ctx also bounds the loads started later by the
// search debounce timer. The returned error is the load error, also exposed as View.Error.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.loadSchema(ctx)

	return c.Load(ctx, c.opts.ID)
}

// Close stops the debounce timer. Loads completing afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.searchGen++

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Entity returns the current entity name.
func (c *Controller) Entity() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.q.entity
}

// change applies fn to the query state and reloads when fn reports a change. Every change except a page
// change moves back to the first page. fn runs with c.mu held.
func (c *Controller) change(ctx context.Context, resetPage bool, fn func(q *query) bool) {
	c.mu.Lock()
	if c.closed || !fn(&c.q) {
		c.mu.Unlock()
		return
	}

	if resetPage {
		c.q.page = 1
	}

	c.r.loading = true
	c.mu.Unlock()

	_ = c.Load(ctx, c.opts.ID)
}

// SetEntity switches to another entity: its options are fetched and the listing reloads.
func (c *Controller) SetEntity(ctx context.Context, entityName string) {
	c.mu.Lock()
	if c.closed || c.q.entity == entityName {
		c.mu.Unlock()
		return
	}

	c.q.entity = entityName
	c.q.page = 1
	c.r.loading = true
	c.mu.Unlock()

	c.loadSchema(ctx)
	_ = c.Load(ctx, c.opts.ID)
}

// SetMode switches between local and remote mode. A pending search input is rescheduled with the delay
// of the new mode.
func (c *Controller) SetMode(ctx context.Context, mode Mode) {
	c.change(ctx, true, func(q *query) bool {
		if q.mode == mode {
			return false
		}

		q.mode = mode

		return true
	})

	c.mu.Lock()
	pending := c.timer != nil
	input := c.q.searchInput
	c.mu.Unlock()

	if pending {
		c.SetSearchInput(ctx, input)
	}
}

// SetPage moves to page p (1-based).
func (c *Controller) SetPage(ctx context.Context, p int) {
	p = max(p, 1)

	c.change(ctx, false, func(q *query) bool {
		if q.page == p {
			return false
		}

		q.page = p

		return true
	})
}

// SetPageSize changes the number of rows per page.
func (c *Controller) SetPageSize(ctx context.Context, size int) {
	if size <= 0 {
		size = DefaultPageSize
	}

	c.change(ctx, true, func(q *query) bool {
		if q.pageSize == size {
			return false
		}

		q.pageSize = size

		return true
	})
}

// SetSortKey sorts by key; an empty key disables sorting.
func (c *Controller) SetSortKey(ctx context.Context, key string) {
	c.change(ctx, true, func(q *query) bool {
		if q.sortKey == key {
			return false
		}

		q.sortKey = key

		return true
	})
}

// SetSortDir sets the sort direction.
func (c *Controller) SetSortDir(ctx context.Context, dir entity.SortDir) {
	if dir != entity.SortDesc {
		dir = entity.SortAsc
	}

	c.change(ctx, true, func(q *query) bool {
		if q.sortDir == dir {
			return false
		}

		q.sortDir = dir

		return true
	})
}

// ToggleSort sorts ascending by key, or flips the direction when key is already the sort key.
func (c *Controller) ToggleSort(ctx context.Context, key string) {
	c.change(ctx, true, func(q *query) bool {
		if q.sortKey != key {
			q.sortKey = key
			q.sortDir = entity.SortAsc

			return true
		}

		if q.sortDir == entity.SortAsc {
			q.sortDir = entity.SortDesc
		} else {
			q.sortDir = entity.SortAsc
		}

		return true
	})
}

// SetFilters replaces the filters.
func (c *Controller) SetFilters(ctx context.Context, f entity.Filters) {
	c.change(ctx, true, func(q *query) bool {
		if q.filters.Equal(f) {
			return false
		}

		q.filters = f.Clone()

		return true
	})
}

// UpdateFilters merges partial into the filters: new keys are added, existing keys overwritten,
// the others kept.
func (c *Controller) UpdateFilters(ctx context.Context, partial entity.Filters) {
	c.change(ctx, true, func(q *query) bool {
		next := q.filters.Merge(partial)
		if q.filters.Equal(next) {
			return false
		}

		q.filters = next

		return true
	})
}

// ClearFilters removes every filter.
func (c *Controller) ClearFilters(ctx context.Context) {
	c.SetFilters(ctx, entity.Filters{})
}

// SetSearchInput records the raw search text. The trimmed text is committed after the debounce delay of
// the current mode; a new input cancels the pending commit.
func (c *Controller) SetSearchInput(ctx context.Context, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.q.searchInput = text
	c.searchGen++
	gen := c.searchGen

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	delay := c.opts.LocalDebounce
	if c.q.mode == ModeRemote {
		delay = c.opts.RemoteDebounce
	}

	if delay > 0 {
		bg := c.ctx
		c.timer = time.AfterFunc(delay, func() { c.commitSearch(bg, gen, text) })
	}
	c.mu.Unlock()

	c.notify()

	if delay <= 0 {
		c.commitSearch(ctx, gen, text)
	}
}

// SetSearch sets the search input and commits it immediately.
func (c *Controller) SetSearch(ctx context.Context, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.q.searchInput = text
	c.searchGen++
	gen := c.searchGen

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.commitSearch(ctx, gen, text)
}

func (c *Controller) commitSearch(ctx context.Context, gen uint64, text string) {
	needle := strings.TrimSpace(text)

	c.change(ctx, true, func(q *query) bool {
		if gen != c.searchGen {
			return false
		}

		c.timer = nil

		if q.search == needle {
			return false
		}

		q.search = needle

		return true
	})
}

// Refresh reloads with the current query state.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Load(ctx, c.opts.ID)
}

// IsSortedAsc reports whether the listing is sorted ascending by key.
func (c *Controller) IsSortedAsc(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.q.sortKey == key && c.q.sortDir == entity.SortAsc
}

// IsSortedDesc reports whether the listing is sorted descending by key.
func (c *Controller) IsSortedDesc(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.q.sortKey == key && c.q.sortDir == entity.SortDesc
}

func (c *Controller) notify() {
	if c.opts.OnChange == nil {
		return
	}

	c.opts.OnChange(c.Snapshot())
}
