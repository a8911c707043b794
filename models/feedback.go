package models

import (
	"time"

	"github.com/google/uuid"
)

// MealType identifies the cafeteria service a record belongs to
type MealType string

const (
	MealTypeBreakfast MealType = "Breakfast"
	MealTypeLunch     MealType = "Lunch"
	MealTypeDinner    MealType = "Dinner"
	MealTypeSnacks    MealType = "Snacks"
)

// IsValid reports whether m is a known meal service
func (m MealType) IsValid() bool {
	switch m {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnacks:
		return true
	}
	return false
}

// Sentiment is derived from a feedback rating
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SentimentForRating maps a 1-4 rating to a sentiment
func SentimentForRating(rating int) Sentiment {
	switch {
	case rating >= 3:
		return SentimentPositive
	case rating == 2:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// Feedback is a diner's rating of a dish, optionally with a voice transcript
type Feedback struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DishName   string    `json:"dish_name" db:"dish_name"`
	MealType   MealType  `json:"meal_type" db:"meal_type"`
	Rating     int       `json:"rating" db:"rating"`
	Transcript string    `json:"transcript,omitempty" db:"transcript"`
	Sentiment  Sentiment `json:"sentiment" db:"sentiment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedback"
}

// NewFeedback creates a Feedback entry with its sentiment derived from the rating
func NewFeedback(dishName string, mealType MealType, rating int, transcript string) *Feedback {
	return &Feedback{
		ID:         uuid.New(),
		DishName:   dishName,
		MealType:   mealType,
		Rating:     rating,
		Transcript: transcript,
		Sentiment:  SentimentForRating(rating),
		CreatedAt:  time.Now(),
	}
}

// WasteRecord is the quantity of a dish thrown away during one meal service
type WasteRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Date      time.Time `json:"date" db:"date"`
	DishName  string    `json:"dish_name" db:"dish_name"`
	MealType  MealType  `json:"meal_type" db:"meal_type"`
	WastageKg float64   `json:"wastage_kg" db:"wastage_kg"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the WasteRecord model
func (WasteRecord) TableName() string {
	return "waste_records"
}

// NewWasteRecord creates a WasteRecord for the given day
func NewWasteRecord(date time.Time, dishName string, mealType MealType, wastageKg float64) *WasteRecord {
	return &WasteRecord{
		ID:        uuid.New(),
		Date:      date,
		DishName:  dishName,
		MealType:  mealType,
		WastageKg: wastageKg,
		CreatedAt: time.Now(),
	}
}

// InsightPriority ranks how urgent a suggestion is
type InsightPriority string

const (
	InsightPriorityLow    InsightPriority = "Low"
	InsightPriorityMedium InsightPriority = "Medium"
	InsightPriorityHigh   InsightPriority = "High"
)

// Insight is a single waste-reduction suggestion
type Insight struct {
	Suggestion string          `json:"suggestion"`
	Impact     string          `json:"impact"`
	Priority   InsightPriority `json:"priority"`
}
