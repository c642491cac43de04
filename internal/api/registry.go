package api

import (
	"context"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/schema"
)

// RegistryClient answers options from a schema registry and delegates every other operation.
type RegistryClient struct {
	Client     Client
	Registry   *schema.Registry
	ClientName string
}

// NewRegistryClient wraps next so that options come from the provider registered for clientName.
func NewRegistryClient(next Client, registry *schema.Registry, clientName string) *RegistryClient {
	return &RegistryClient{Client: next, Registry: registry, ClientName: clientName}
}

// Fetch implements Client.
func (c *RegistryClient) Fetch(ctx context.Context, entityName string, op Operation, payload any) (any, error) {
	if op != OpOptions || c.Registry == nil {
		return c.Client.Fetch(ctx, entityName, op, payload)
	}

	doc, err := c.Registry.Options(ctx, c.ClientName, entityName)
	if err != nil {
		return nil, err
	}

	return doc, nil
}
