package matching

import (
	"context"

	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"github.com/foodloop/donation-engine/services/geo"
	"go.uber.org/zap"
)

// Service answers "which organizations can take this donation"
type Service struct {
	orgs    repositories.OrganizationRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a new matching service
func NewService(orgs repositories.OrganizationRepository, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		orgs:    orgs,
		metrics: metrics,
		logger:  logger,
	}
}

// FindMatches returns eligible organizations ordered nearest first
func (s *Service) FindMatches(ctx context.Context, donor geo.Point, c Criteria) ([]Match, error) {
	if err := donor.Validate(); err != nil {
		return nil, services.NewInvalidInput("location", err.Error())
	}
	if err := c.Validate(); err != nil {
		return nil, services.NewInvalidInput("criteria", err.Error())
	}

	candidates, err := s.orgs.ListAll(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to load organizations", err)
	}

	ranked := Rank(Filter(candidates, donor, c))
	s.metrics.RecordMatchQuery(ctx, len(ranked))

	observability.FromContext(ctx, s.logger).Debug("matched organizations",
		zap.Float64("latitude", donor.Latitude),
		zap.Float64("longitude", donor.Longitude),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(ranked)),
	)

	return ranked, nil
}
