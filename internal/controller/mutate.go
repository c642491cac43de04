package controller

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/options"
)

type mutateConfig struct {
	target string
	reload bool
}

// MutateOption adjusts Create and DeleteByID.
type MutateOption func(*mutateConfig)

// WithTargetEntity sends the mutation to another entity than the controller's.
func WithTargetEntity(name string) MutateOption {
	return func(m *mutateConfig) {
		if name != "" {
			m.target = name
		}
	}
}

// WithoutReload skips the reload that follows a successful mutation.
func WithoutReload() MutateOption {
	return func(m *mutateConfig) {
		m.reload = false
	}
}

func (c *Controller) mutateConfig(opts []MutateOption) mutateConfig {
	cfg := mutateConfig{target: c.Entity(), reload: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Create materializes the uploads of payload against the schema of the target entity, posts it and,
// unless WithoutReload is given, reloads. Errors are returned to the caller.
func (c *Controller) Create(ctx context.Context, payload entity.Row, opts ...MutateOption) (any, error) {
	cfg := c.mutateConfig(opts)

	res, err := c.create(ctx, cfg.target, payload)
	observeMutation(string(api.OpPost), err)

	if err != nil {
		return nil, err
	}

	if cfg.reload {
		c.reload(ctx)
	}

	return res, nil
}

func (c *Controller) create(ctx context.Context, target string, payload entity.Row) (any, error) {
	ready, err := c.materializer.Materialize(ctx, target, payload, c.schemaFor(ctx, target))
	if err != nil {
		return nil, err
	}

	return c.client.Fetch(ctx, target, api.OpPost, ready)
}

// Update sets id on payload when it has none, materializes uploads, submits the update and reloads.
func (c *Controller) Update(ctx context.Context, id any, payload entity.Row) (any, error) {
	row := payload.Clone()
	if id != nil {
		if _, ok := row["id"]; !ok {
			row["id"] = id
		}
	}

	target := c.Entity()

	res, err := c.update(ctx, target, row)
	observeMutation(string(api.OpUpdate), err)

	if err != nil {
		return nil, err
	}

	c.reload(ctx)

	return res, nil
}

func (c *Controller) update(ctx context.Context, target string, row entity.Row) (any, error) {
	ready, err := c.materializer.Materialize(ctx, target, row, c.schemaFor(ctx, target))
	if err != nil {
		return nil, err
	}

	return c.client.Fetch(ctx, target, api.OpUpdate, ready)
}

// DeleteByID deletes a record and, unless WithoutReload is given, reloads. A falsy id is a no-op.
func (c *Controller) DeleteByID(ctx context.Context, id any, opts ...MutateOption) error {
	if !entity.Truthy(id) {
		return nil
	}

	cfg := c.mutateConfig(opts)

	_, err := c.client.Fetch(ctx, cfg.target, api.OpDelete, id)
	observeMutation(string(api.OpDelete), err)

	if err != nil {
		return err
	}

	if cfg.reload {
		c.reload(ctx)
	}

	return nil
}

// GetOne fetches a single record of the current entity.
func (c *Controller) GetOne(ctx context.Context, id any) (entity.Row, error) {
	data, err := c.client.Fetch(ctx, c.Entity(), api.OpGetOne, id)
	if err != nil {
		return nil, err
	}

	rows, _, _ := entity.ListFromResponse(data, true)
	if len(rows) == 0 {
		return nil, nil //nolint:nilnil
	}

	return rows[0], nil
}

// ExportBlob requests an export for the current query and filter state. Filters travel JSON-encoded in the
// "filters" parameter; filters that cannot be JSON-encoded fail the export. A response that is not a binary
// artifact yields nil.
func (c *Controller) ExportBlob(ctx context.Context) (*api.Blob, error) {
	c.mu.Lock()
	name := c.q.entity
	params := api.Query{
		"page":    c.q.page,
		"size":    c.q.pageSize,
		"q":       c.q.search,
		"sortKey": c.q.sortKey,
		"sortDir": string(c.q.sortDir),
	}

	f, err := c.q.filters.Encode()
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if f != "" {
		params["filters"] = f
	}

	res, err := c.client.Fetch(ctx, name, api.OpExport, params)
	if err != nil {
		return nil, err
	}

	blob, ok := res.(*api.Blob)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	return blob, nil
}

// schemaFor returns the cached schema for the controller's entity, or fetches the schema of another
// target. A failed fetch yields an empty schema, so uploads pass through untouched.
func (c *Controller) schemaFor(ctx context.Context, target string) entity.Schema {
	c.mu.Lock()
	if target == c.q.entity {
		s := c.r.schema
		c.mu.Unlock()

		return s
	}
	c.mu.Unlock()

	opts, err := options.LoadEntityOptions(ctx, c.client, target)
	if err != nil {
		log.Warn().Err(err).Str("entity", target).Msg("no schema for target entity")
		return nil
	}

	return opts.Schema
}

// reload runs a load after a mutation; its failure is exposed through View.Error.
func (c *Controller) reload(ctx context.Context) {
	if err := c.Load(ctx, c.opts.ID); err != nil {
		log.Debug().Err(err).Msg("reload after mutation failed")
	}
}
