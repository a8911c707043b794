package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const organizationColumns = `id, slug, name, address, phone, email, description, latitude, longitude,
		total_capacity_kg, current_load_kg, food_categories, response_time_minutes, is_active, rating,
		created_at, updated_at`

// OrganizationRepository implements the repositories.OrganizationRepository interface
type OrganizationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB, logger *zap.Logger) repositories.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts an organization or refreshes its profile. current_load_kg is only set on insert.
func (r *OrganizationRepository) Upsert(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			description = EXCLUDED.description,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			total_capacity_kg = EXCLUDED.total_capacity_kg,
			food_categories = EXCLUDED.food_categories,
			response_time_minutes = EXCLUDED.response_time_minutes,
			is_active = EXCLUDED.is_active,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(ctx, query,
		org.ID,
		org.Slug,
		org.Name,
		org.Address,
		org.Phone,
		org.Email,
		org.Description,
		org.Latitude,
		org.Longitude,
		org.TotalCapacityKg,
		org.CurrentLoadKg,
		pq.Array(org.FoodCategories),
		org.ResponseTimeMinutes,
		org.IsActive,
		org.Rating,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert organization: %w", err)
	}

	r.logger.Debug("organization upserted", zap.String("id", org.ID.String()), zap.String("slug", org.Slug))
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	q := querier(ctx, r.db)
	org, err := scanOrganization(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// List retrieves organizations ordered by name with pagination
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`

	return r.queryOrganizations(ctx, query, limit, offset)
}

// ListAll retrieves every organization ordered by name
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY name, id`

	return r.queryOrganizations(ctx, query)
}

// Count returns the number of organizations
func (r *OrganizationRepository) Count(ctx context.Context) (int, error) {
	var count int
	q := querier(ctx, r.db)
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return count, nil
}

// SetActive activates or deactivates an organization
func (r *OrganizationRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE organizations SET is_active = $2, updated_at = NOW() WHERE id = $1`

	q := querier(ctx, r.db)
	result, err := q.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update organization status: %w", err)
	}

	if err := requireOneRow(result, fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)); err != nil {
		return err
	}

	r.logger.Debug("organization status updated", zap.String("id", id.String()), zap.Bool("is_active", active))
	return nil
}

// ReserveCapacity adds quantityKg to the current load only if it still fits.
// The guard in the WHERE clause makes check and increment a single atomic step.
func (r *OrganizationRepository) ReserveCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) (bool, error) {
	query := `
		UPDATE organizations
		SET current_load_kg = current_load_kg + $2, updated_at = NOW()
		WHERE id = $1 AND current_load_kg + $2 <= total_capacity_kg
	`

	q := querier(ctx, r.db)
	result, err := q.ExecContext(ctx, query, id, quantityKg)
	if err != nil {
		return false, fmt.Errorf("failed to reserve capacity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("capacity reservation attempted",
		zap.String("org_id", id.String()),
		zap.Float64("quantity_kg", quantityKg),
		zap.Bool("reserved", rows == 1),
	)
	return rows == 1, nil
}

// ReleaseCapacity subtracts quantityKg from the current load
func (r *OrganizationRepository) ReleaseCapacity(ctx context.Context, id uuid.UUID, quantityKg float64) error {
	query := `
		UPDATE organizations
		SET current_load_kg = GREATEST(current_load_kg - $2, 0), updated_at = NOW()
		WHERE id = $1 AND current_load_kg + $3 >= $2
	`

	q := querier(ctx, r.db)
	result, err := q.ExecContext(ctx, query, id, quantityKg, models.CapacityEpsilon)
	if err != nil {
		return fmt.Errorf("failed to release capacity: %w", err)
	}

	return requireOneRow(result, fmt.Errorf("release of %.2f kg on %s: %w", quantityKg, id, repositories.ErrStaleState))
}

func (r *OrganizationRepository) queryOrganizations(ctx context.Context, query string, args ...interface{}) ([]*models.Organization, error) {
	q := querier(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrganization(s scanner) (*models.Organization, error) {
	org := &models.Organization{}
	var rating sql.NullFloat64

	err := s.Scan(
		&org.ID,
		&org.Slug,
		&org.Name,
		&org.Address,
		&org.Phone,
		&org.Email,
		&org.Description,
		&org.Latitude,
		&org.Longitude,
		&org.TotalCapacityKg,
		&org.CurrentLoadKg,
		pq.Array(&org.FoodCategories),
		&org.ResponseTimeMinutes,
		&org.IsActive,
		&rating,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		v := rating.Float64
		org.Rating = &v
	}
	return org, nil
}

// requireOneRow returns notFound when the statement affected no rows
func requireOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
