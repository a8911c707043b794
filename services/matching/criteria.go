// Package matching selects and orders organizations able to take a donation.
package matching

import (
	"fmt"
	"math"

	"github.com/foodloop/donation-engine/models"
)

// Default criteria values
const (
	DefaultMaxDistanceKm          = 20.0
	DefaultMinAvailableKg         = 0.0
	DefaultMaxResponseTimeMinutes = 120
)

// Criteria are the eligibility predicates an organization must satisfy.
// An empty FoodCategories means any category is acceptable.
type Criteria struct {
	MaxDistanceKm          float64  `json:"max_distance_km"`
	FoodCategories         []string `json:"food_categories,omitempty"`
	MinAvailableKg         float64  `json:"min_available_kg"`
	MaxResponseTimeMinutes int      `json:"max_response_time_minutes"`
	OnlyActive             bool     `json:"only_active"`
}

// DefaultCriteria returns the criteria applied when the caller does not override them
func DefaultCriteria() Criteria {
	return Criteria{
		MaxDistanceKm:          DefaultMaxDistanceKm,
		MinAvailableKg:         DefaultMinAvailableKg,
		MaxResponseTimeMinutes: DefaultMaxResponseTimeMinutes,
		OnlyActive:             true,
	}
}

// Validate checks the criteria for impossible values
func (c Criteria) Validate() error {
	if math.IsNaN(c.MaxDistanceKm) || c.MaxDistanceKm < 0 {
		return fmt.Errorf("max_distance_km must be a non-negative number")
	}
	if math.IsNaN(c.MinAvailableKg) || math.IsInf(c.MinAvailableKg, 0) || c.MinAvailableKg < 0 {
		return fmt.Errorf("min_available_kg must be a finite non-negative number")
	}
	if c.MaxResponseTimeMinutes < 0 {
		return fmt.Errorf("max_response_time_minutes must not be negative")
	}
	for _, cat := range c.FoodCategories {
		if !models.IsValidCategory(cat) {
			return fmt.Errorf("unknown food category %q", cat)
		}
	}
	return nil
}
