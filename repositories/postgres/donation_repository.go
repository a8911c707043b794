package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const donationColumns = `id, org_id, donor_id, quantity_kg, food_type, description, pickup_time, status,
		created_at, last_transition_at`

// DonationRepository implements the repositories.DonationRepository interface
type DonationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *DB, logger *zap.Logger) repositories.DonationRepository {
	return &DonationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new offer
func (r *DonationRepository) Create(ctx context.Context, offer *models.DonationOffer) error {
	query := `
		INSERT INTO donation_offers (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(ctx, query,
		offer.ID,
		offer.OrgID,
		offer.DonorID,
		offer.QuantityKg,
		offer.FoodType,
		offer.Description,
		offer.PickupTime,
		offer.Status,
		offer.CreatedAt,
		offer.LastTransitionAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}

	r.logger.Debug("donation created", zap.String("id", offer.ID.String()), zap.String("org_id", offer.OrgID.String()))
	return nil
}

// GetByID retrieves an offer by ID
func (r *DonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_offers WHERE id = $1`

	q := querier(ctx, r.db)
	offer, err := scanDonation(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donation %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	return offer, nil
}

// UpdateStatus moves an offer from one status to another, guarded on the current status
func (r *DonationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.DonationStatus, at time.Time) error {
	query := `
		UPDATE donation_offers
		SET status = $3, last_transition_at = $4
		WHERE id = $1 AND status = $2
	`

	q := querier(ctx, r.db)
	result, err := q.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return fmt.Errorf("failed to update donation status: %w", err)
	}

	if err := requireOneRow(result, fmt.Errorf("donation %s no longer %s: %w", id, from, repositories.ErrStaleState)); err != nil {
		return err
	}

	r.logger.Debug("donation status updated",
		zap.String("id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// List retrieves offers newest first
func (r *DonationRepository) List(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationOffer, error) {
	where, args := donationWhere(filter)
	query := `SELECT ` + donationColumns + ` FROM donation_offers` + where + ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	q := querier(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	offers := make([]*models.DonationOffer, 0)
	for rows.Next() {
		offer, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donations: %w", err)
	}

	return offers, nil
}

// Count returns the number of offers matching the filter
func (r *DonationRepository) Count(ctx context.Context, filter repositories.DonationFilter) (int, error) {
	where, args := donationWhere(filter)

	var count int
	q := querier(ctx, r.db)
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM donation_offers`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count donations: %w", err)
	}
	return count, nil
}

// SumConfirmedKg returns the total quantity of confirmed offers for an organization
func (r *DonationRepository) SumConfirmedKg(ctx context.Context, orgID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity_kg), 0) FROM donation_offers WHERE org_id = $1 AND status = $2`

	var total float64
	q := querier(ctx, r.db)
	if err := q.QueryRowContext(ctx, query, orgID, models.DonationStatusConfirmed).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum confirmed donations: %w", err)
	}
	return total, nil
}

// donationWhere builds the WHERE clause and positional args for a filter
func donationWhere(filter repositories.DonationFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		clauses = append(clauses, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if filter.OrgID != nil {
		args = append(args, *filter.OrgID)
		clauses = append(clauses, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanDonation(s scanner) (*models.DonationOffer, error) {
	offer := &models.DonationOffer{}
	err := s.Scan(
		&offer.ID,
		&offer.OrgID,
		&offer.DonorID,
		&offer.QuantityKg,
		&offer.FoodType,
		&offer.Description,
		&offer.PickupTime,
		&offer.Status,
		&offer.CreatedAt,
		&offer.LastTransitionAt,
	)
	if err != nil {
		return nil, err
	}
	return offer, nil
}
