package postgres

import (
	"context"
	"fmt"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"go.uber.org/zap"
)

// FeedbackRepository implements the repositories.FeedbackRepository interface
type FeedbackRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB, logger *zap.Logger) repositories.FeedbackRepository {
	return &FeedbackRepository{db: db, logger: logger}
}

// Create inserts a feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, dish_name, meal_type, rating, transcript, sentiment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(ctx, query,
		fb.ID, fb.DishName, fb.MealType, fb.Rating, fb.Transcript, fb.Sentiment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	r.logger.Debug("feedback created", zap.String("id", fb.ID.String()))
	return nil
}

// ListRecent retrieves the newest feedback entries
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]*models.Feedback, error) {
	query := `
		SELECT id, dish_name, meal_type, rating, transcript, sentiment, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1
	`

	q := querier(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Feedback, 0)
	for rows.Next() {
		fb := &models.Feedback{}
		if err := rows.Scan(&fb.ID, &fb.DishName, &fb.MealType, &fb.Rating, &fb.Transcript, &fb.Sentiment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return out, nil
}

// WasteRepository implements the repositories.WasteRepository interface
type WasteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWasteRepository creates a new waste repository
func NewWasteRepository(db *DB, logger *zap.Logger) repositories.WasteRepository {
	return &WasteRepository{db: db, logger: logger}
}

// Create inserts a waste record
func (r *WasteRepository) Create(ctx context.Context, rec *models.WasteRecord) error {
	query := `
		INSERT INTO waste_records (id, date, dish_name, meal_type, wastage_kg, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(ctx, query,
		rec.ID, rec.Date, rec.DishName, rec.MealType, rec.WastageKg, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create waste record: %w", err)
	}

	r.logger.Debug("waste record created", zap.String("id", rec.ID.String()))
	return nil
}

// ListRecent retrieves the newest waste records by date
func (r *WasteRepository) ListRecent(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	query := `
		SELECT id, date, dish_name, meal_type, wastage_kg, created_at
		FROM waste_records
		ORDER BY date DESC, created_at DESC
		LIMIT $1
	`

	q := querier(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query waste records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.WasteRecord, 0)
	for rows.Next() {
		rec := &models.WasteRecord{}
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.DishName, &rec.MealType, &rec.WastageKg, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waste record: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waste records: %w", err)
	}
	return out, nil
}

// limitOrAll maps a non-positive limit to NULL, which Postgres treats as LIMIT ALL
func limitOrAll(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}
