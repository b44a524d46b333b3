package arrivals

import (
	"testing"
	"time"

	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

const (
	testStopLat = 51.10
	testStopLon = 17.03
)

func obsAt(id, line string, lat, lon float64) vehicles.Observation {
	return vehicles.Observation{
		VehicleID:  id,
		LineName:   line,
		Latitude:   lat,
		Longitude:  lon,
		ObservedAt: time.Now(),
	}
}

func TestFindClosestPicksNearest(t *testing.T) {
	observations := []vehicles.Observation{
		obsAt("tram-1", "33", testStopLat+0.02, testStopLon),  // ~2.2 km
		obsAt("tram-2", "33", testStopLat+0.005, testStopLon), // ~556 m
		obsAt("tram-3", "8", testStopLat+0.001, testStopLon),  // other line
	}

	got, dist, ok := findClosest(observations, "33", testStopLat, testStopLon, 3000)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.VehicleID != "tram-2" {
		t.Errorf("matched %s, want tram-2", got.VehicleID)
	}
	if dist < 500 || dist > 600 {
		t.Errorf("distance = %f, want ~556", dist)
	}
}

func TestFindClosestCaseInsensitive(t *testing.T) {
	observations := []vehicles.Observation{
		obsAt("bus-1", "d", testStopLat+0.001, testStopLon),
	}

	if _, _, ok := findClosest(observations, "D", testStopLat, testStopLon, 5000); !ok {
		t.Error("line name comparison should ignore case")
	}
}

func TestFindClosestRespectsRadius(t *testing.T) {
	observations := []vehicles.Observation{
		obsAt("tram-1", "33", testStopLat+0.05, testStopLon), // ~5.6 km
	}

	if _, _, ok := findClosest(observations, "33", testStopLat, testStopLon, 3000); ok {
		t.Error("vehicle beyond the match radius should not match")
	}
}

func TestFindClosestNoVehicles(t *testing.T) {
	if _, _, ok := findClosest(nil, "33", testStopLat, testStopLon, 3000); ok {
		t.Error("empty observation list should not match")
	}
}
