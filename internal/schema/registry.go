// Package schema resolves per-deployment entity options (schema and table configuration) through providers
// registered by client name at startup.
package schema

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Provider returns the raw options document for an entity.
type Provider interface {
	Options(ctx context.Context, entityName string) (map[string]any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, entityName string) (map[string]any, error)

// Options implements Provider.
func (f ProviderFunc) Options(ctx context.Context, entityName string) (map[string]any, error) {
	return f(ctx, entityName)
}

// Registry maps client identifiers to schema providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds a provider to a client name, replacing any previous one.
func (r *Registry) Register(client string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[client] = p
}

// Lookup returns the provider registered for client.
func (r *Registry) Lookup(client string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[client]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownClient, "client %q", client)
	}

	return p, nil
}

// Clients returns the registered client names in sorted order.
func (r *Registry) Clients() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// Options resolves the provider for client and asks it for the entity options.
func (r *Registry) Options(ctx context.Context, client, entityName string) (map[string]any, error) {
	p, err := r.Lookup(client)
	if err != nil {
		return nil, err
	}

	return p.Options(ctx, entityName)
}
