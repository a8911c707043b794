// Package records stores cafeteria feedback and waste records, the raw material for insights.
package records

import (
	"context"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"go.uber.org/zap"
)

const (
	MaxDishNameLength   = 120
	MaxTranscriptLength = 2000
	DefaultListLimit    = 20
	MaxListLimit        = 100
)

// FeedbackInput is a diner's rating of a dish
type FeedbackInput struct {
	DishName   string
	MealType   models.MealType
	Rating     int
	Transcript string
}

// WasteInput is the wastage of one dish in one meal service. A zero Date means today.
type WasteInput struct {
	DishName  string
	MealType  models.MealType
	WastageKg float64
	Date      time.Time
}

// Service records feedback and waste
type Service struct {
	feedback repositories.FeedbackRepository
	waste    repositories.WasteRepository
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a records service. location defines the calendar day of a waste record.
func NewService(feedback repositories.FeedbackRepository, waste repositories.WasteRepository, location *time.Location, logger *zap.Logger) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		feedback: feedback,
		waste:    waste,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordFeedback stores feedback with its sentiment derived from the rating
func (s *Service) RecordFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	dish := strings.TrimSpace(in.DishName)
	if err := validateDish(dish, in.MealType); err != nil {
		return nil, err
	}
	if in.Rating < 1 || in.Rating > 4 {
		return nil, services.NewInvalidInput("rating", "rating must be between 1 and 4")
	}
	if len(in.Transcript) > MaxTranscriptLength {
		return nil, services.NewInvalidInput("transcript", "transcript is too long")
	}

	fb := models.NewFeedback(dish, in.MealType, in.Rating, strings.TrimSpace(in.Transcript))
	fb.CreatedAt = s.now()
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, services.WrapInternal("failed to store feedback", err)
	}

	observability.FromContext(ctx, s.logger).Debug("feedback recorded",
		zap.String("dish_name", fb.DishName),
		zap.Int("rating", fb.Rating),
		zap.String("sentiment", string(fb.Sentiment)),
	)
	return fb, nil
}

// RecordWaste stores a waste record, dated today when no date is given
func (s *Service) RecordWaste(ctx context.Context, in WasteInput) (*models.WasteRecord, error) {
	dish := strings.TrimSpace(in.DishName)
	if err := validateDish(dish, in.MealType); err != nil {
		return nil, err
	}
	if !(in.WastageKg > 0) {
		return nil, services.NewInvalidInput("wastage_kg", "wastage_kg must be positive")
	}

	now := s.now().In(s.location)
	date := in.Date
	if date.IsZero() {
		date = now
	}
	date = startOfDay(date.In(s.location))
	if date.After(now) {
		return nil, services.NewInvalidInput("date", "date must not be in the future")
	}

	rec := models.NewWasteRecord(date, dish, in.MealType, in.WastageKg)
	rec.CreatedAt = now
	if err := s.waste.Create(ctx, rec); err != nil {
		return nil, services.WrapInternal("failed to store waste record", err)
	}

	observability.FromContext(ctx, s.logger).Debug("waste recorded",
		zap.String("dish_name", rec.DishName),
		zap.Float64("wastage_kg", rec.WastageKg),
	)
	return rec, nil
}

// ListFeedback returns the newest feedback first
func (s *Service) ListFeedback(ctx context.Context, limit int) ([]*models.Feedback, error) {
	out, err := s.feedback.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, services.WrapInternal("failed to list feedback", err)
	}
	return out, nil
}

// ListWaste returns the newest waste records first
func (s *Service) ListWaste(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	out, err := s.waste.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, services.WrapInternal("failed to list waste records", err)
	}
	return out, nil
}

func validateDish(dish string, meal models.MealType) error {
	if dish == "" {
		return services.NewInvalidInput("dish_name", "dish_name is required")
	}
	if len(dish) > MaxDishNameLength {
		return services.NewInvalidInput("dish_name", "dish_name is too long")
	}
	if !meal.IsValid() {
		return services.NewInvalidInput("meal_type", "meal_type must be one of Breakfast, Lunch, Dinner, Snacks")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
