package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStaleState is returned when a guarded update finds the row no longer in the expected state
	ErrStaleState = errors.New("record changed concurrently")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// The ctx passed to fn carries the transaction; repositories called with it join the transaction.
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction
	Context() context.Context
}

// OrganizationRepository handles organization data operations
type OrganizationRepository interface {
	// Upsert inserts an organization or refreshes its profile. Current load is never overwritten.
	Upsert(ctx context.Context, org *models.Organization) error

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// List retrieves organizations ordered by name with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Organization, error)

	// ListAll retrieves every organization, the candidate set for matching
	ListAll(ctx context.Context) ([]*models.Organization, error)

	// Count returns the number of organizations
	Count(ctx context.Context) (int, error)

	// SetActive activates or deactivates an organization
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ReserveCapacity adds quantityKg to the current load only if it still fits.
	// Returns false without error when the reservation does not fit.
	ReserveCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) (bool, error)

	// ReleaseCapacity subtracts quantityKg from the current load
	ReleaseCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) error
}

// DonationFilter narrows donation listings. Zero values mean "any"; Limit 0 means no limit.
type DonationFilter struct {
	DonorID string
	OrgID   *uuid.UUID
	Status  models.DonationStatus
	Limit   int
	Offset  int
}

// DonationRepository handles donation offer data operations
type DonationRepository interface {
	// Create inserts a new offer
	Create(ctx context.Context, offer *models.DonationOffer) error

	// GetByID retrieves an offer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error)

	// UpdateStatus moves an offer from one status to another.
	// Returns ErrStaleState when the offer is no longer in the from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.DonationStatus, at time.Time) error

	// List retrieves offers newest first
	List(ctx context.Context, filter DonationFilter) ([]*models.DonationOffer, error)

	// Count returns the number of offers matching the filter, ignoring Limit and Offset
	Count(ctx context.Context, filter DonationFilter) (int, error)

	// SumConfirmedKg returns the total quantity of confirmed offers for an organization
	SumConfirmedKg(ctx context.Context, orgID uuid.UUID) (float64, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByResource retrieves the audit trail of a resource, oldest first
	GetByResource(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error)
}

// FeedbackRepository handles diner feedback
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error

	// ListRecent retrieves the newest feedback entries
	ListRecent(ctx context.Context, limit int) ([]*models.Feedback, error)
}

// WasteRepository handles daily waste records
type WasteRepository interface {
	Create(ctx context.Context, rec *models.WasteRecord) error

	// ListRecent retrieves the newest waste records by date
	ListRecent(ctx context.Context, limit int) ([]*models.WasteRecord, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Organizations OrganizationRepository
	Donations     DonationRepository
	AuditLogs     AuditRepository
	Feedback      FeedbackRepository
	Waste         WasteRepository
}
