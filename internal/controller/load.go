package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/options"
)

// Load fetches the listing for the current query state. A non nil id scopes the request to one record.
//
// Every call is tagged with a sequence number; when a newer call has started by the time the response
// arrives, the response is discarded and ErrSuperseded returned. A failed load clears the items, zeroes the
// total and exposes the error message as View.Error.
func (c *Controller) Load(ctx context.Context, id any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.loadSeq++
	seq := c.loadSeq
	q := c.q
	q.filters = c.q.filters.Clone()
	fields := c.r.fields
	c.r.loading = true
	c.r.err = ""
	c.mu.Unlock()

	c.notify()

	start := time.Now()

	var (
		rows  []entity.Row
		total int
		err   error
	)

	if q.mode == ModeRemote {
		rows, total, err = c.fetchRemote(ctx, q, id)
	} else {
		rows, total, err = c.fetchLocal(ctx, q, fields)
	}

	c.mu.Lock()
	if c.closed || seq != c.loadSeq {
		c.mu.Unlock()
		observeLoad(q.mode, resultSuperseded, time.Since(start))
		log.Debug().Str("entity", q.entity).Uint64("seq", seq).Msg("discarding superseded load")

		return ErrSuperseded
	}

	c.r.loading = false

	if err != nil {
		c.r.err = err.Error()
		c.r.items = []entity.Row{}
		c.r.total = 0
	} else {
		c.r.items = rows
		c.r.total = total

		if len(c.r.fields) == 0 && len(rows) > 0 {
			c.r.fields = rows[0].Keys()
		}
	}
	c.mu.Unlock()

	if err != nil {
		observeLoad(q.mode, resultError, time.Since(start))
		log.Error().Err(err).Str("entity", q.entity).Str("mode", string(q.mode)).Msg("load failed")
	} else {
		observeLoad(q.mode, resultOK, time.Since(start))
	}

	c.notify()

	return err
}

// fetchRemote asks the backend for one page; filters are reduced to their scalar values.
func (c *Controller) fetchRemote(ctx context.Context, q query, id any) ([]entity.Row, int, error) {
	params := api.Query{
		"page":    q.page,
		"size":    q.pageSize,
		"q":       q.search,
		"sortKey": q.sortKey,
		"sortDir": string(q.sortDir),
	}

	if id != nil {
		params["id"] = id
	}

	for k, v := range q.filters.Flatten() {
		params[k] = v
	}

	target := q.entity
	if entity.Truthy(id) {
		target += "/" + entity.ToString(id)
	}

	data, err := c.client.Fetch(ctx, target, api.OpGet, params)
	if err != nil {
		return nil, 0, err
	}

	rows, total, _ := entity.ListFromResponse(data, true)

	return rows, total, nil
}

// fetchLocal fetches the whole collection, then searches, filters and sorts it in that order.
func (c *Controller) fetchLocal(ctx context.Context, q query, fields []string) ([]entity.Row, int, error) {
	data, err := c.client.Fetch(ctx, q.entity, api.OpGet, nil)
	if err != nil {
		return nil, 0, err
	}

	rows, _, _ := entity.ListFromResponse(data, false)

	rows = entity.Search(rows, q.search, fields)
	rows = entity.ApplyFilters(rows, q.filters)

	if q.sortKey != "" {
		rows = entity.SortRows(rows, q.sortKey, q.sortDir)
	}

	return rows, len(rows), nil
}

// loadSchema fetches the options of the current entity. A failure leaves an empty schema and field list
// and does not touch View.Error.
func (c *Controller) loadSchema(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.schemaSeq++
	seq := c.schemaSeq
	name := c.q.entity
	c.mu.Unlock()

	opts, err := options.LoadEntityOptions(ctx, c.client, name)

	c.mu.Lock()
	if c.closed || seq != c.schemaSeq {
		c.mu.Unlock()
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("entity", name).Msg("options unavailable, continuing without schema")

		c.r.fields = nil
		c.r.schema = nil
		c.r.table = entity.TableConfig{}
	} else {
		c.r.fields = opts.FieldNames()
		c.r.schema = opts.Schema
		c.r.table = opts.Table
	}
	c.mu.Unlock()

	c.notify()
}

// LoadRefOptions resolves the options of a reference field, fetching at most the configured reference
// page size. A nil ref yields no options.
func (c *Controller) LoadRefOptions(ctx context.Context, ref *entity.Ref) ([]entity.Option, error) {
	if ref == nil {
		return []entity.Option{}, nil
	}

	r := *ref
	r.Size = c.opts.RefPageSize

	return options.ResolveRef(ctx, c.client, r)
}
