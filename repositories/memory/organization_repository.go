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

// OrganizationRepository implements repositories.OrganizationRepository in memory
type OrganizationRepository struct {
	store  *Store
	logger *zap.Logger
}

// Upsert inserts an organization or refreshes its profile, keeping the current load
func (r *OrganizationRepository) Upsert(ctx context.Context, org *models.Organization) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := org.Clone()
	if existing, ok := r.store.organizations[org.ID]; ok {
		prev := existing.Clone()
		stored.CurrentLoadKg = existing.CurrentLoadKg
		stored.CreatedAt = existing.CreatedAt
		recordUndo(ctx, func() { r.store.organizations[prev.ID] = &prev })
	} else {
		recordUndo(ctx, func() { delete(r.store.organizations, stored.ID) })
	}
	stored.UpdatedAt = time.Now()
	r.store.organizations[org.ID] = &stored

	r.logger.Debug("organization upserted", zap.String("id", org.ID.String()), zap.String("slug", org.Slug))
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	org, ok := r.store.organizations[id]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	c := org.Clone()
	return &c, nil
}

// List retrieves organizations ordered by name with pagination
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(all, limit, offset), nil
}

// ListAll retrieves every organization ordered by name
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]*models.Organization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orgs := make([]*models.Organization, 0, len(r.store.organizations))
	for _, org := range r.store.organizations {
		c := org.Clone()
		orgs = append(orgs, &c)
	}
	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].Name != orgs[j].Name {
			return orgs[i].Name < orgs[j].Name
		}
		return orgs[i].ID.String() < orgs[j].ID.String()
	})
	return orgs, nil
}

// Count returns the number of organizations
func (r *OrganizationRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.organizations), nil
}

// SetActive activates or deactivates an organization
func (r *OrganizationRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	org, ok := r.store.organizations[id]
	if !ok {
		return fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	prevActive, prevUpdated := org.IsActive, org.UpdatedAt
	org.IsActive = active
	org.UpdatedAt = time.Now()
	recordUndo(ctx, func() {
		if o, ok := r.store.organizations[id]; ok {
			o.IsActive = prevActive
			o.UpdatedAt = prevUpdated
		}
	})
	return nil
}

// ReserveCapacity adds quantityKg to the current load if it still fits
func (r *OrganizationRepository) ReserveCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	org, ok := r.store.organizations[id]
	if !ok {
		return false, fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	if !org.CanAccept(quantityKg) {
		return false, nil
	}
	org.CurrentLoadKg += quantityKg
	recordUndo(ctx, func() { r.adjustLoad(id, -quantityKg) })

	r.logger.Debug("capacity reserved",
		zap.String("org_id", id.String()),
		zap.Float64("quantity_kg", quantityKg),
		zap.Float64("current_load_kg", org.CurrentLoadKg),
	)
	return true, nil
}

// ReleaseCapacity subtracts quantityKg from the current load
func (r *OrganizationRepository) ReleaseCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	org, ok := r.store.organizations[id]
	if !ok {
		return fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	if org.CurrentLoadKg+models.CapacityEpsilon < quantityKg {
		return fmt.Errorf("release of %.2f kg exceeds load of %.2f kg on %s: %w",
			quantityKg, org.CurrentLoadKg, id, repositories.ErrStaleState)
	}
	org.CurrentLoadKg -= quantityKg
	recordUndo(ctx, func() { r.adjustLoad(id, quantityKg) })
	return nil
}

// adjustLoad shifts an organization's load by deltaKg. Caller holds store.mu.
func (r *OrganizationRepository) adjustLoad(id uuid.UUID, deltaKg float64) {
	if org, ok := r.store.organizations[id]; ok {
		org.CurrentLoadKg += deltaKg
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
