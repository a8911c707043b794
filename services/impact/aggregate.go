// Package impact derives donation impact figures from offer history.
package impact

import (
	"math"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/google/uuid"
)

const (
	// MealsPerKg is the number of meals one kilogram of food provides
	MealsPerKg = 3.33

	// CO2PerKg is the kilograms of CO2 avoided per kilogram of food not wasted
	CO2PerKg = 2.5
)

// Aggregate computes the impact snapshot of offers as of now. Picked-up offers count toward
// the totals; open offers touching now's calendar day, in now's location, count as active today.
func Aggregate(offers []*models.DonationOffer, now time.Time) models.ImpactSnapshot {
	var snap models.ImpactSnapshot
	orgs := make(map[uuid.UUID]struct{})

	for _, offer := range offers {
		switch offer.Status {
		case models.DonationStatusPickedUp:
			snap.TotalKg += offer.QuantityKg
			snap.DonationCount++
			orgs[offer.OrgID] = struct{}{}
		case models.DonationStatusPending, models.DonationStatusConfirmed:
			if sameDay(offer.PickupTime, now) || sameDay(offer.LastTransitionAt, now) {
				snap.ActiveToday++
			}
		}
	}

	snap.OrganizationsEngaged = len(orgs)
	snap.MealsFed = int(math.Floor(snap.TotalKg * MealsPerKg))
	snap.CO2SavedKg = round2(snap.TotalKg * CO2PerKg)
	return snap
}

func sameDay(t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
