// Package geo computes great-circle distances between coordinates.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the point lies within valid latitude/longitude ranges
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// DistanceKm returns the haversine distance between a and b in kilometers
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair outside [0, 1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders a distance for display: meters below 1 km, otherwise one decimal of km
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
