package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	newDelhi = Point{Latitude: 28.6139, Longitude: 77.2090}
	mumbai   = Point{Latitude: 19.0760, Longitude: 72.8777}
)

func TestDistanceKm_Identity(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(newDelhi, newDelhi))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	assert.InDelta(t, DistanceKm(newDelhi, mumbai), DistanceKm(mumbai, newDelhi), 1e-9)
}

func TestDistanceKm_RandomPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	randomPoint := func() Point {
		return Point{Latitude: rng.Float64()*180 - 90, Longitude: rng.Float64()*360 - 180}
	}
	halfCircumference := math.Pi * EarthRadiusKm

	for i := 0; i < 1000; i++ {
		a, b := randomPoint(), randomPoint()
		ab, ba := DistanceKm(a, b), DistanceKm(b, a)

		assert.InDelta(t, ab, ba, 1e-9, "asymmetric for %v and %v", a, b)
		assert.GreaterOrEqual(t, ab, 0.0, "negative for %v and %v", a, b)
		assert.LessOrEqual(t, ab, halfCircumference+1e-6, "longer than half the globe for %v and %v", a, b)
		assert.Equal(t, 0.0, DistanceKm(a, a))
	}
}

func TestDistanceKm_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Point
		want  float64
		delta float64
	}{
		{"delhi to mumbai", newDelhi, mumbai, 1148, 5},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111.19, 0.05},
		{"antipodal", Point{0, 0}, Point{0, 180}, 20015.09, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, newDelhi.Validate())
	assert.NoError(t, Point{Latitude: -90, Longitude: 180}.Validate())
	assert.Error(t, Point{Latitude: 91}.Validate())
	assert.Error(t, Point{Longitude: -180.5}.Validate())
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850m", FormatDistance(0.85))
	assert.Equal(t, "0m", FormatDistance(0))
	assert.Equal(t, "1.0km", FormatDistance(1))
	assert.Equal(t, "12.3km", FormatDistance(12.34))
}
