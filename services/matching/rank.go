package matching

import (
	"math"
	"sort"
)

// distanceTieKm is the distance difference below which two matches count as equidistant
const distanceTieKm = 1e-6

// Rank returns a new slice ordered nearest first. Equidistant matches prefer the higher rating,
// unrated organizations last, and otherwise keep their input order.
func Rank(matches []Match) []Match {
	ranked := make([]Match, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if math.Abs(a.DistanceKm-b.DistanceKm) > distanceTieKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.RatingValue() > b.RatingValue()
	})
	return ranked
}
