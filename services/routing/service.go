// Package routing picks which registered text-generation provider serves a
// request and fails over to the others when it errors.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/foodloop/donation-engine/services/providers"
	"go.uber.org/zap"
)

var (
	// ErrNoProviderAvailable is returned when no candidate provider is registered
	ErrNoProviderAvailable = errors.New("no provider available")
)

// Config holds configuration for the routing service
type Config struct {
	// Primary is tried first
	Primary string

	// FallbackProviders are tried in order after Primary
	FallbackProviders []string

	// EnableFallback also tries every other registered provider after the listed ones
	EnableFallback bool
}

// ProviderStats counts outcomes for one provider
type ProviderStats struct {
	Requests    int           `json:"requests"`
	Failures    int           `json:"failures"`
	LastLatency time.Duration `json:"last_latency"`
}

// Service routes generation requests across the provider registry
type Service struct {
	config   Config
	registry *providers.Registry
	logger   *zap.Logger

	mu    sync.Mutex
	stats map[string]*ProviderStats
}

// NewService creates a new routing service
func NewService(config Config, registry *providers.Registry, logger *zap.Logger) *Service {
	return &Service{
		config:   config,
		registry: registry,
		logger:   logger,
		stats:    make(map[string]*ProviderStats),
	}
}

// Route sends req to the first candidate provider and fails over on error.
// It returns the response together with the name of the provider that served it,
// or the name of the last provider tried when every candidate failed.
func (s *Service) Route(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, string, error) {
	candidates := s.candidates()
	if len(candidates) == 0 {
		return nil, s.config.Primary, fmt.Errorf("%w: %q is not configured", ErrNoProviderAvailable, s.config.Primary)
	}

	var (
		lastErr  error
		lastName string
	)
	for i, provider := range candidates {
		lastName = provider.Name()

		resp, err := s.execute(ctx, provider, req)
		if err == nil {
			if i > 0 {
				s.logger.Info("served by fallback provider",
					zap.String("provider", lastName),
					zap.String("primary", s.config.Primary))
			}
			return resp, lastName, nil
		}
		lastErr = err

		// The caller gave up, another provider will not help
		if ctx.Err() != nil {
			break
		}
		if i < len(candidates)-1 {
			s.logger.Warn("provider failed, trying next",
				zap.String("provider", lastName),
				zap.Bool("retryable", providers.IsRetryable(err)),
				zap.Error(err))
		}
	}

	return nil, lastName, lastErr
}

// candidates lists registered providers in routing order without duplicates
func (s *Service) candidates() []providers.Provider {
	names := []string{s.config.Primary}
	names = append(names, s.config.FallbackProviders...)
	if s.config.EnableFallback {
		names = append(names, s.registry.ListProviders()...)
	}

	seen := make(map[string]bool, len(names))
	out := make([]providers.Provider, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		provider, err := s.registry.GetProvider(name)
		if err != nil {
			continue
		}
		out = append(out, provider)
	}
	return out
}

// execute calls one provider and records its outcome
func (s *Service) execute(ctx context.Context, provider providers.Provider, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	start := time.Now()
	resp, err := provider.Generate(ctx, req)
	latency := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[provider.Name()]
	if !ok {
		st = &ProviderStats{}
		s.stats[provider.Name()] = st
	}
	st.Requests++
	st.LastLatency = latency
	if err != nil {
		st.Failures++
	}

	return resp, err
}

// GetStats returns a copy of the per-provider statistics
func (s *Service) GetStats() map[string]ProviderStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]ProviderStats, len(s.stats))
	for name, st := range s.stats {
		out[name] = *st
	}
	return out
}

// ResetStats clears all tracking statistics
func (s *Service) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = make(map[string]*ProviderStats)
}
