package providers

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownProvider is returned by Get for names nobody registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry maps engine names to providers. Names are case-insensitive.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers. It panics
// on duplicate names, which are a programming error.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a provider. A second provider with the same name is
// rejected.
func (r *Registry) Register(provider Provider) error {
	name := strings.ToLower(provider.Name())
	if name == "" {
		return fmt.Errorf("provider %T has no name", provider)
	}
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.providers[name] = provider
	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	provider, exists := r.providers[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownProvider, name, strings.Join(r.List(), ", "))
	}
	return provider, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HasProvider checks if a provider is registered
func (r *Registry) HasProvider(name string) bool {
	_, exists := r.providers[strings.ToLower(name)]
	return exists
}
