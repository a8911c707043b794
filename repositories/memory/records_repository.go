package memory

import (
	"context"
	"sort"

	"github.com/foodloop/donation-engine/models"
	"github.com/google/uuid"
)

// AuditRepository implements repositories.AuditRepository in memory
type AuditRepository struct {
	store *Store
}

// Insert appends an audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *log
	r.store.auditLogs = append(r.store.auditLogs, &c)
	recordUndo(ctx, func() { r.store.auditLogs = removeItem(r.store.auditLogs, &c) })
	return nil
}

// GetByResource retrieves the audit trail of a resource, oldest first
func (r *AuditRepository) GetByResource(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.AuditLog, 0)
	for _, log := range r.store.auditLogs {
		if log.ResourceID != nil && *log.ResourceID == resourceID {
			c := *log
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// FeedbackRepository implements repositories.FeedbackRepository in memory
type FeedbackRepository struct {
	store *Store
}

// Create stores a feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *fb
	r.store.feedback = append(r.store.feedback, &c)
	recordUndo(ctx, func() { r.store.feedback = removeItem(r.store.feedback, &c) })
	return nil
}

// ListRecent retrieves the newest feedback entries
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]*models.Feedback, error) {
	r.store.mu.RLock()
	out := make([]*models.Feedback, 0, len(r.store.feedback))
	for _, fb := range r.store.feedback {
		c := *fb
		out = append(out, &c)
	}
	r.store.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, 0), nil
}

// WasteRepository implements repositories.WasteRepository in memory
type WasteRepository struct {
	store *Store
}

// Create stores a waste record
func (r *WasteRepository) Create(ctx context.Context, rec *models.WasteRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *rec
	r.store.waste = append(r.store.waste, &c)
	recordUndo(ctx, func() { r.store.waste = removeItem(r.store.waste, &c) })
	return nil
}

// ListRecent retrieves the newest waste records by date
func (r *WasteRepository) ListRecent(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	r.store.mu.RLock()
	out := make([]*models.WasteRecord, 0, len(r.store.waste))
	for _, rec := range r.store.waste {
		c := *rec
		out = append(out, &c)
	}
	r.store.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, limit, 0), nil
}

// removeItem drops the entry identical to item, preserving order
func removeItem[T any](items []*T, item *T) []*T {
	for i, it := range items {
		if it == item {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
