package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry manages provider instances by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// RegisterProvider registers a provider instance
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.providers[name] = provider
	return nil
}

// UnregisterProvider removes a provider from the registry
func (r *Registry) UnregisterProvider(providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[providerName]; !exists {
		return ErrProviderNotFound
	}
	delete(r.providers, providerName)
	return nil
}

// GetProvider retrieves a provider by name
func (r *Registry) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// ListProviders returns all registered provider names, sorted
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// ProviderBuilder is a function that creates a provider instance
type ProviderBuilder func(config ProviderConfig) (Provider, error)

// RegistryBuilder helps build a registry with multiple providers
type RegistryBuilder struct {
	registry *Registry
	builders map[string]ProviderBuilder
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		builders: make(map[string]ProviderBuilder),
	}
}

// WithProviderBuilder registers a provider builder
func (rb *RegistryBuilder) WithProviderBuilder(name string, builder ProviderBuilder) *RegistryBuilder {
	rb.builders[name] = builder
	return rb
}

// Build creates a provider for every config that has a builder and returns the registry.
// Configs without an API key are skipped.
func (rb *RegistryBuilder) Build(configs map[string]ProviderConfig) (*Registry, error) {
	for name, config := range configs {
		builder, exists := rb.builders[name]
		if !exists || config.APIKey == "" {
			continue
		}
		provider, err := builder(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", name, err)
		}
		if err := rb.registry.RegisterProvider(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", name, err)
		}
	}

	return rb.registry, nil
}
