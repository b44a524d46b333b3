package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		// Wrocław main station to Rynek is roughly 1.5 km
		{"wroclaw station to market square", 51.0989, 17.0366, 51.1100, 17.0320, 1250, 100},
		{"zero distance", 51.1, 17.03, 51.1, 17.03, 0, 0.001},
		{"one degree of latitude", 0, 0, 1, 0, 111195, 100},
		{"antipodal", 0, 0, 0, 180, math.Pi * earthRadiusMeters, 1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Distance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.IsNaN(d) || math.IsInf(d, 0) {
				t.Fatalf("Distance returned %v", d)
			}
			if math.Abs(d-tc.expected) > tc.tolerance {
				t.Errorf("Distance = %.1f, expected %.1f ±%.1f", d, tc.expected, tc.tolerance)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(51.11, 17.03, 51.09, 17.01)
	d2 := Distance(51.09, 17.01, 51.11, 17.03)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 50.9, MaxLat: 51.3, MinLon: 16.6, MaxLon: 17.4}

	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"inside", 51.11, 17.03, true},
		{"null island", 0, 0, false},
		{"north of box", 52.2, 17.0, false},
		{"west of box", 51.1, 15.0, false},
		{"nan latitude", math.NaN(), 17.0, false},
		{"inf longitude", 51.1, math.Inf(1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.Contains(tc.lat, tc.lon); got != tc.expected {
				t.Errorf("Contains(%v, %v) = %v, expected %v", tc.lat, tc.lon, got, tc.expected)
			}
		})
	}
}
