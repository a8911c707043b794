// Package donation runs the donation offer lifecycle: pending, confirmed, picked up or cancelled.
//
// Confirmation is the only step that reserves organization capacity. It is serialized per
// organization in process and guarded in storage by a compare-and-swap reservation plus a
// status-guarded update in one transaction, so concurrent confirms can never over-commit.
package donation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/internal/messaging"
	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"github.com/foodloop/donation-engine/services/capacity"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// PickupSkew tolerates clock drift between donor devices and the server
	PickupSkew = 5 * time.Minute

	// MaxDescriptionLength bounds the free-text description of an offer
	MaxDescriptionLength = 500
)

// Transition names used in metrics and spans
const (
	TransitionCreate   = "create"
	TransitionConfirm  = "confirm"
	TransitionComplete = "complete"
	TransitionCancel   = "cancel"
)

// Auditor records lifecycle transitions and reads them back
type Auditor interface {
	LogDonationTransition(offer *models.DonationOffer, previous models.DonationStatus, requestID string) error
	Trail(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error)
}

// CreateInput describes a new donation offer
type CreateInput struct {
	DonorID     string
	OrgID       uuid.UUID
	QuantityKg  float64
	FoodType    models.FoodType
	Description string
	PickupTime  time.Time
}

// Service manages donation offers and the capacity they hold
type Service struct {
	orgs      repositories.OrganizationRepository
	donations repositories.DonationRepository
	txManager repositories.TransactionManager
	locker    *capacity.Locker
	publisher messaging.PublisherInterface
	auditor   Auditor
	metrics   *observability.Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new donation service
func NewService(
	repos *repositories.Repositories,
	txManager repositories.TransactionManager,
	locker *capacity.Locker,
	publisher messaging.PublisherInterface,
	auditor Auditor,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		orgs:      repos.Organizations,
		donations: repos.Donations,
		txManager: txManager,
		locker:    locker,
		publisher: publisher,
		auditor:   auditor,
		metrics:   metrics,
		tracer:    observability.Tracer(),
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and stores a pending offer. Capacity is checked but not reserved.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.DonationOffer, error) {
	ctx, span := s.tracer.Start(ctx, "donation.create", trace.WithAttributes(
		attribute.String("org_id", in.OrgID.String()),
		attribute.Float64("quantity_kg", in.QuantityKg),
	))
	defer span.End()

	offer, err := s.create(ctx, in)
	s.finish(ctx, span, TransitionCreate, err)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, offer, "")
	return offer, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (*models.DonationOffer, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, in.OrgID)
	if err != nil {
		return nil, s.mapRepoError(err, "organization", in.OrgID)
	}
	if !org.IsActive {
		return nil, services.NewInvalidInput("org_id", "organization is not accepting donations")
	}
	if !org.CanAccept(in.QuantityKg) {
		return nil, services.NewCapacityExceeded(org.ID.String(), in.QuantityKg, org.AvailableKg())
	}

	offer := models.NewDonationOffer(org.ID, in.DonorID, in.QuantityKg, in.FoodType, in.PickupTime)
	offer.Description = strings.TrimSpace(in.Description)
	now := s.now()
	offer.CreatedAt = now
	offer.LastTransitionAt = now

	if err := s.donations.Create(ctx, offer); err != nil {
		return nil, services.WrapInternal("failed to create donation", err)
	}
	return offer, nil
}

func (s *Service) validateCreate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.DonorID) == "":
		return services.NewInvalidInput("donor_id", "donor is required")
	case in.OrgID == uuid.Nil:
		return services.NewInvalidInput("org_id", "organization is required")
	case math.IsNaN(in.QuantityKg) || math.IsInf(in.QuantityKg, 0) || in.QuantityKg <= 0:
		return services.NewInvalidInput("quantity_kg", "quantity must be a positive number of kilograms")
	case !in.FoodType.IsValid():
		return services.NewInvalidInput("food_type", fmt.Sprintf("unknown food type %q", in.FoodType))
	case len(in.Description) > MaxDescriptionLength:
		return services.NewInvalidInput("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	case in.PickupTime.IsZero():
		return services.NewInvalidInput("pickup_time", "pickup time is required")
	case in.PickupTime.Before(s.now().Add(-PickupSkew)):
		return services.NewInvalidInput("pickup_time", "pickup time must not be in the past")
	}
	return nil
}

// Confirm reserves the offer's quantity on its organization and moves it to confirmed
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return s.transition(ctx, id, TransitionConfirm, models.DonationStatusConfirmed, func(ctx context.Context, offer *models.DonationOffer) error {
		org, err := s.orgs.GetByID(ctx, offer.OrgID)
		if err != nil {
			return s.mapRepoError(err, "organization", offer.OrgID)
		}
		if !org.IsActive {
			return services.NewInvalidInput("org_id", "organization is not accepting donations")
		}

		ok, err := s.orgs.ReserveCapacity(ctx, offer.OrgID, offer.QuantityKg)
		if err != nil {
			return s.mapRepoError(err, "organization", offer.OrgID)
		}
		if ok {
			return nil
		}

		s.metrics.RecordCapacityRejection(ctx, TransitionConfirm)
		available := 0.0
		if org, err := s.orgs.GetByID(ctx, offer.OrgID); err == nil {
			available = org.AvailableKg()
		}
		return services.NewCapacityExceeded(offer.OrgID.String(), offer.QuantityKg, available)
	})
}

// Complete marks a confirmed offer as picked up and releases its reservation
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return s.transition(ctx, id, TransitionComplete, models.DonationStatusPickedUp, s.release)
}

// Cancel withdraws a pending or confirmed offer, releasing the reservation of a confirmed one
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return s.transition(ctx, id, TransitionCancel, models.DonationStatusCancelled, func(ctx context.Context, offer *models.DonationOffer) error {
		if !offer.Status.HoldsCapacity() {
			return nil
		}
		return s.release(ctx, offer)
	})
}

func (s *Service) release(ctx context.Context, offer *models.DonationOffer) error {
	if err := s.orgs.ReleaseCapacity(ctx, offer.OrgID, offer.QuantityKg); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return services.WrapInternal("organization load is out of sync with confirmed donations", err)
		}
		return s.mapRepoError(err, "organization", offer.OrgID)
	}
	return nil
}

// transition moves an offer to next under its organization's lock. apply runs in the same
// transaction as the status change and sees the offer as stored before the move.
func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	name string,
	next models.DonationStatus,
	apply func(ctx context.Context, offer *models.DonationOffer) error,
) (*models.DonationOffer, error) {
	ctx, span := s.tracer.Start(ctx, "donation."+name, trace.WithAttributes(
		attribute.String("donation_id", id.String()),
		attribute.String("to_status", string(next)),
	))
	defer span.End()

	offer, from, err := s.move(ctx, id, next, apply)
	s.finish(ctx, span, name, err)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, offer, from)
	return offer, nil
}

func (s *Service) move(
	ctx context.Context,
	id uuid.UUID,
	next models.DonationStatus,
	apply func(ctx context.Context, offer *models.DonationOffer) error,
) (*models.DonationOffer, models.DonationStatus, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !offer.Status.CanTransitionTo(next) {
		return nil, "", services.NewInvalidTransition(offer.Status, next)
	}

	unlock := s.locker.Lock(offer.OrgID)
	defer unlock()

	at := s.now()
	var from models.DonationStatus

	err = services.WithTransaction(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) error {
		// Re-read under the lock; another request may have moved the offer meanwhile
		current, err := s.donations.GetByID(ctx, id)
		if err != nil {
			return s.mapRepoError(err, "donation", id)
		}
		if !current.Status.CanTransitionTo(next) {
			return services.NewInvalidTransition(current.Status, next)
		}
		from = current.Status

		if apply != nil {
			if err := apply(ctx, current); err != nil {
				return err
			}
		}

		if err := s.donations.UpdateStatus(ctx, id, from, next, at); err != nil {
			if errors.Is(err, repositories.ErrStaleState) {
				return services.NewInvalidTransition(from, next)
			}
			return s.mapRepoError(err, "donation", id)
		}

		offer = current
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	offer.MarkAs(next, at)
	return offer, from, nil
}

// Get returns an offer by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	offer, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "donation", id)
	}
	return offer, nil
}

// List returns offers matching filter, newest first, together with the unpaginated total
func (s *Service) List(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationOffer, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, services.NewInvalidInput("status", fmt.Sprintf("unknown status %q", filter.Status))
	}

	offers, err := s.donations.List(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list donations", err)
	}
	total, err := s.donations.Count(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to count donations", err)
	}
	return offers, total, nil
}

// History returns the recorded transitions of an offer, oldest first
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*models.AuditLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.auditor == nil {
		return []*models.AuditLog{}, nil
	}

	logs, err := s.auditor.Trail(ctx, id)
	if err != nil {
		return nil, services.WrapInternal("failed to load donation history", err)
	}
	return logs, nil
}

// LoadDrift is an organization whose stored load differs from its confirmed offers
type LoadDrift struct {
	OrgID       uuid.UUID `json:"org_id"`
	LoadKg      float64   `json:"load_kg"`
	ConfirmedKg float64   `json:"confirmed_kg"`
}

// VerifyLoads compares every organization's current load with the sum of its confirmed
// offers and returns the ones that disagree. Each organization is read under its lock.
func (s *Service) VerifyLoads(ctx context.Context) ([]LoadDrift, error) {
	orgs, err := s.orgs.ListAll(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to load organizations", err)
	}

	var drifts []LoadDrift
	for _, org := range orgs {
		drift, err := s.verifyLoad(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}
	return drifts, nil
}

func (s *Service) verifyLoad(ctx context.Context, orgID uuid.UUID) (*LoadDrift, error) {
	unlock := s.locker.Lock(orgID)
	defer unlock()

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, s.mapRepoError(err, "organization", orgID)
	}
	confirmed, err := s.donations.SumConfirmedKg(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to sum confirmed donations", err)
	}
	if math.Abs(org.CurrentLoadKg-confirmed) <= models.CapacityEpsilon {
		return nil, nil
	}

	observability.FromContext(ctx, s.logger).Warn("organization load out of sync",
		zap.String("org_id", orgID.String()),
		zap.Float64("load_kg", org.CurrentLoadKg),
		zap.Float64("confirmed_kg", confirmed),
	)
	return &LoadDrift{OrgID: orgID, LoadKg: org.CurrentLoadKg, ConfirmedKg: confirmed}, nil
}

// announce records and publishes a committed transition. Failures never undo the transition.
func (s *Service) announce(ctx context.Context, offer *models.DonationOffer, from models.DonationStatus) {
	logger := observability.FromContext(ctx, s.logger)

	if s.auditor != nil {
		if err := s.auditor.LogDonationTransition(offer, from, observability.RequestIDFromContext(ctx)); err != nil {
			logger.Warn("failed to record donation audit entry", zap.Error(err), zap.String("donation_id", offer.ID.String()))
		}
	}

	event := messaging.NewDonationEvent(offer, from)
	if err := s.publisher.Publish(ctx, event.EventType, event); err != nil {
		logger.Warn("failed to publish donation event",
			zap.Error(err),
			zap.String("routing_key", event.EventType),
			zap.String("donation_id", offer.ID.String()),
		)
	}

	logger.Info("donation transition",
		zap.String("donation_id", offer.ID.String()),
		zap.String("org_id", offer.OrgID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(offer.Status)),
		zap.Float64("quantity_kg", offer.QuantityKg),
	)
}

func (s *Service) finish(ctx context.Context, span trace.Span, name string, err error) {
	if err == nil {
		s.metrics.RecordTransition(ctx, name, observability.OutcomeSuccess)
		return
	}

	s.metrics.RecordTransition(ctx, name, observability.OutcomeFailure)
	if services.IsCapacityExceededError(err) && name == TransitionCreate {
		s.metrics.RecordCapacityRejection(ctx, name)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(services.GetErrorType(err)))

	if services.IsInternalError(err) {
		observability.FromContext(ctx, s.logger).Error("donation transition failed",
			zap.String("transition", name),
			zap.Error(err),
		)
	}
}

func (s *Service) mapRepoError(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.NewNotFound(resource, id.String())
	}
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return services.WrapInternal(fmt.Sprintf("failed to access %s", resource), err)
}
