package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DonationRepository implements repositories.DonationRepository in memory
type DonationRepository struct {
	store  *Store
	logger *zap.Logger
}

// Create inserts a new offer
func (r *DonationRepository) Create(ctx context.Context, offer *models.DonationOffer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.donations[offer.ID]; exists {
		return fmt.Errorf("donation %s already exists", offer.ID)
	}
	c := *offer
	r.store.donations[offer.ID] = &c
	recordUndo(ctx, func() { delete(r.store.donations, c.ID) })

	r.logger.Debug("donation created", zap.String("id", offer.ID.String()))
	return nil
}

// GetByID retrieves an offer by ID
func (r *DonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	offer, ok := r.store.donations[id]
	if !ok {
		return nil, fmt.Errorf("donation %s: %w", id, repositories.ErrNotFound)
	}
	c := *offer
	return &c, nil
}

// UpdateStatus moves an offer from one status to another if it is still in from
func (r *DonationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.DonationStatus, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	offer, ok := r.store.donations[id]
	if !ok {
		return fmt.Errorf("donation %s: %w", id, repositories.ErrNotFound)
	}
	if offer.Status != from {
		return fmt.Errorf("donation %s is %s, expected %s: %w", id, offer.Status, from, repositories.ErrStaleState)
	}
	prevStatus, prevAt := offer.Status, offer.LastTransitionAt
	offer.MarkAs(to, at)
	recordUndo(ctx, func() {
		if o, ok := r.store.donations[id]; ok {
			o.MarkAs(prevStatus, prevAt)
		}
	})
	return nil
}

// List retrieves offers newest first
func (r *DonationRepository) List(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationOffer, error) {
	r.store.mu.RLock()
	matched := r.matching(filter)
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

// Count returns the number of offers matching the filter
func (r *DonationRepository) Count(ctx context.Context, filter repositories.DonationFilter) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.matching(filter)), nil
}

// SumConfirmedKg returns the total quantity of confirmed offers for an organization
func (r *DonationRepository) SumConfirmedKg(ctx context.Context, orgID uuid.UUID) (float64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total float64
	for _, offer := range r.store.donations {
		if offer.OrgID == orgID && offer.Status.HoldsCapacity() {
			total += offer.QuantityKg
		}
	}
	return total, nil
}

// matching returns copies of the offers passing filter. Caller holds store.mu.
func (r *DonationRepository) matching(filter repositories.DonationFilter) []*models.DonationOffer {
	out := make([]*models.DonationOffer, 0)
	for _, offer := range r.store.donations {
		if filter.DonorID != "" && offer.DonorID != filter.DonorID {
			continue
		}
		if filter.OrgID != nil && offer.OrgID != *filter.OrgID {
			continue
		}
		if filter.Status != "" && offer.Status != filter.Status {
			continue
		}
		c := *offer
		out = append(out, &c)
	}
	return out
}
