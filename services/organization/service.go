package organization

import (
	"context"
	"errors"

	"github.com/foodloop/donation-engine/internal/messaging"
	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor records organization availability changes
type Auditor interface {
	LogOrganizationStatusChanged(orgID uuid.UUID, actorID string, active bool, requestID string) error
}

// Service serves the organization directory
type Service struct {
	orgs      repositories.OrganizationRepository
	publisher messaging.PublisherInterface
	auditor   Auditor
	logger    *zap.Logger
}

// NewService creates a new organization service
func NewService(orgs repositories.OrganizationRepository, publisher messaging.PublisherInterface, auditor Auditor, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		orgs:      orgs,
		publisher: publisher,
		auditor:   auditor,
		logger:    logger,
	}
}

// List returns a page of organizations ordered by name, and the total count
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Organization, int, error) {
	orgs, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list organizations", err)
	}
	total, err := s.orgs.Count(ctx)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to count organizations", err)
	}
	return orgs, total, nil
}

// Get returns an organization by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.NewNotFound("organization", id.String())
		}
		return nil, services.WrapInternal("failed to get organization", err)
	}
	return org, nil
}

// SetActive activates or deactivates an organization. Organizations are never deleted;
// a deactivated one stops matching and stops accepting new offers.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool, actorID string) (*models.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if org.IsActive == active {
		return org, nil
	}

	if err := s.orgs.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.NewNotFound("organization", id.String())
		}
		return nil, services.WrapInternal("failed to update organization", err)
	}
	wasActive := org.IsActive
	org.IsActive = active

	logger := observability.FromContext(ctx, s.logger)

	if s.auditor != nil {
		if err := s.auditor.LogOrganizationStatusChanged(id, actorID, active, observability.RequestIDFromContext(ctx)); err != nil {
			logger.Warn("failed to record organization audit entry", zap.Error(err))
		}
	}

	event := messaging.NewOrganizationStatusChangedEvent(id, wasActive, active)
	if err := s.publisher.Publish(ctx, messaging.EventOrganizationStatusChanged, event); err != nil {
		logger.Warn("failed to publish organization event", zap.Error(err), zap.String("org_id", id.String()))
	}

	logger.Info("organization status changed",
		zap.String("org_id", id.String()),
		zap.Bool("is_active", active),
		zap.String("actor_id", actorID),
	)
	return org, nil
}
