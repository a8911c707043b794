package models

import (
	"time"

	"github.com/google/uuid"
)

// Food acceptance categories an organization can declare
const (
	CategoryCooked     = "cooked"
	CategoryRaw        = "raw"
	CategoryPackaged   = "packaged"
	CategoryFruits     = "fruits"
	CategoryVegetables = "vegetables"
)

// FoodCategories lists every known acceptance category
var FoodCategories = []string{
	CategoryCooked,
	CategoryRaw,
	CategoryPackaged,
	CategoryFruits,
	CategoryVegetables,
}

// organizationNamespace seeds deterministic organization IDs derived from slugs
var organizationNamespace = uuid.MustParse("5b0c6f0e-8d0a-4f57-9a59-2c1a3c6d2f10")

// Organization represents a donation recipient (an NGO, food bank or kitchen)
type Organization struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"` // Stable human-readable identifier
	Name        string    `json:"name" db:"name"`
	Address     string    `json:"address" db:"address"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	Description string    `json:"description,omitempty" db:"description"`

	// Geolocation (WGS84 decimal degrees)
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`

	// Capacity
	TotalCapacityKg float64 `json:"total_capacity_kg" db:"total_capacity_kg"`
	CurrentLoadKg   float64 `json:"current_load_kg" db:"current_load_kg"`

	// Acceptance profile
	FoodCategories      []string `json:"food_categories" db:"food_categories"`
	ResponseTimeMinutes int      `json:"response_time_minutes" db:"response_time_minutes"`
	IsActive            bool     `json:"is_active" db:"is_active"`

	Rating *float64 `json:"rating,omitempty" db:"rating"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new active Organization with an ID derived from its slug
func NewOrganization(slug, name string, lat, lon, totalCapacityKg float64, categories []string) *Organization {
	now := time.Now()
	return &Organization{
		ID:              OrganizationIDFromSlug(slug),
		Slug:            slug,
		Name:            name,
		Latitude:        lat,
		Longitude:       lon,
		TotalCapacityKg: totalCapacityKg,
		FoodCategories:  categories,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// OrganizationIDFromSlug returns the deterministic ID for a slug, so re-seeding is idempotent
func OrganizationIDFromSlug(slug string) uuid.UUID {
	return uuid.NewSHA1(organizationNamespace, []byte(slug))
}

// AvailableKg returns how much more food the organization can currently accept
func (o *Organization) AvailableKg() float64 {
	return o.TotalCapacityKg - o.CurrentLoadKg
}

// CanAccept reports whether quantityKg fits into the available capacity
func (o *Organization) CanAccept(quantityKg float64) bool {
	return quantityKg <= o.AvailableKg()+CapacityEpsilon
}

// AcceptsAny reports whether the organization accepts at least one of the given categories
func (o *Organization) AcceptsAny(categories []string) bool {
	for _, want := range categories {
		for _, have := range o.FoodCategories {
			if want == have {
				return true
			}
		}
	}
	return false
}

// RatingValue returns the rating or -1 when the organization is unrated
func (o *Organization) RatingValue() float64 {
	if o.Rating == nil {
		return -1
	}
	return *o.Rating
}

// Clone returns a deep copy so callers can annotate without touching shared state
func (o *Organization) Clone() Organization {
	c := *o
	if o.FoodCategories != nil {
		c.FoodCategories = append([]string(nil), o.FoodCategories...)
	}
	if o.Rating != nil {
		r := *o.Rating
		c.Rating = &r
	}
	return c
}

// IsValidCategory reports whether c is a known acceptance category
func IsValidCategory(c string) bool {
	for _, known := range FoodCategories {
		if c == known {
			return true
		}
	}
	return false
}
