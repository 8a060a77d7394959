// Package registry holds the set of active coin adapters. The registry is
// built once at startup, injected into every component that resolves
// adapters, and read-only once traffic begins, so concurrent reads need no
// synchronization.
package registry

import (
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/apperror"
)

// Registry maps coin identifiers to adapter instances. Registration order
// defines the default display order.
type Registry struct {
	byID  map[string]ports.CoinAdapter
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]ports.CoinAdapter)}
}

// Register adds an adapter under its identity's identifier. Registering the
// same identifier twice is a conflict: adapter bindings are static boot-time
// configuration, never replaced at runtime.
func (r *Registry) Register(adapter ports.CoinAdapter) error {
	id := adapter.Identity().Identifier
	if _, exists := r.byID[id]; exists {
		return apperror.ErrAlreadyExists("adapter " + id)
	}
	r.byID[id] = adapter
	r.order = append(r.order, id)
	return nil
}

// Resolve returns the adapter for the identifier.
func (r *Registry) Resolve(identifier string) (ports.CoinAdapter, error) {
	adapter, ok := r.byID[identifier]
	if !ok {
		return nil, apperror.ErrUnknownCoin(identifier)
	}
	return adapter, nil
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []ports.CoinAdapter {
	adapters := make([]ports.CoinAdapter, 0, len(r.order))
	for _, id := range r.order {
		adapters = append(adapters, r.byID[id])
	}
	return adapters
}
