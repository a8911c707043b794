package matching

import (
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/services/geo"
)

// Match is an eligible organization annotated with its distance from the donor
type Match struct {
	models.Organization
	DistanceKm    float64 `json:"distance_km"`
	DistanceLabel string  `json:"distance_label"`
	AvailableKg   float64 `json:"available_kg"`
}

// Filter returns the candidates that satisfy every predicate in c, in candidate order.
// Candidates are copied, never mutated.
func Filter(candidates []*models.Organization, donor geo.Point, c Criteria) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, org := range candidates {
		if org == nil {
			continue
		}
		if c.OnlyActive && !org.IsActive {
			continue
		}
		if org.AvailableKg() < c.MinAvailableKg {
			continue
		}
		if len(c.FoodCategories) > 0 && !org.AcceptsAny(c.FoodCategories) {
			continue
		}
		if org.ResponseTimeMinutes > c.MaxResponseTimeMinutes {
			continue
		}

		d := geo.DistanceKm(donor, geo.Point{Latitude: org.Latitude, Longitude: org.Longitude})
		if d > c.MaxDistanceKm {
			continue
		}

		matches = append(matches, Match{
			Organization:  org.Clone(),
			DistanceKm:    d,
			DistanceLabel: geo.FormatDistance(d),
			AvailableKg:   org.AvailableKg(),
		})
	}
	return matches
}
