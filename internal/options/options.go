// Package options loads entity schemas and reference option lists, and keeps them current for a single
// consumer as the entity or reference it watches changes.
package options

import (
	"context"

	"github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/api"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// LoadEntityOptions fetches and normalizes the schema and table configuration of an entity.
func LoadEntityOptions(ctx context.Context, client api.Client, entityName string) (entity.Options, error) {
	data, err := client.Fetch(ctx, entityName, api.OpOptions, nil)
	if err != nil {
		return entity.Options{}, errors.Wrapf(err, "failed to load options of %s", entityName)
	}

	return entity.ParseOptions(data), nil
}

// ResolveRef fetches the first page of the referenced collection, at most ref.Size rows, and projects
// every row to a value/label pair.
func ResolveRef(ctx context.Context, client api.Client, ref entity.Ref) ([]entity.Option, error) {
	ref = ref.WithDefaults()

	data, err := client.Fetch(ctx, ref.Entity, api.OpGet, api.Query{"page": 1, "size": ref.Size})
	if err != nil {
		return nil, err
	}

	rows, _, _ := entity.ListFromResponse(data, false)

	return entity.RefOptionsFromRows(rows, ref), nil
}
