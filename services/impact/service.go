package impact

import (
	"context"
	"time"

	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"go.uber.org/zap"
)

// Service computes impact snapshots from stored offers
type Service struct {
	donations repositories.DonationRepository
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an impact service. location defines the calendar day used for "today".
func NewService(donations repositories.DonationRepository, location *time.Location, logger *zap.Logger) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		donations: donations,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot aggregates every offer of donorID, or every offer when donorID is empty
func (s *Service) Snapshot(ctx context.Context, donorID string) (models.ImpactSnapshot, error) {
	offers, err := s.donations.List(ctx, repositories.DonationFilter{DonorID: donorID})
	if err != nil {
		return models.ImpactSnapshot{}, services.WrapInternal("failed to load donations", err)
	}

	snap := Aggregate(offers, s.now().In(s.location))

	observability.FromContext(ctx, s.logger).Debug("computed impact snapshot",
		zap.String("donor_id", donorID),
		zap.Int("offers", len(offers)),
		zap.Float64("total_kg", snap.TotalKg),
	)
	return snap, nil
}
