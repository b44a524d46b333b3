package arrivals

import (
	"testing"
	"time"

	"github.com/pawelptak/EmPeKa/internal/config"
	"github.com/pawelptak/EmPeKa/internal/history"
	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

func newDetector(now time.Time) (*detector, *history.Cache) {
	cache := history.NewCache()
	return &detector{
		history: cache,
		heur:    config.DefaultHeuristics(),
		now:     func() time.Time { return now },
	}, cache
}

func sample(id string, lat, lon float64, at time.Time) vehicles.Observation {
	return vehicles.Observation{
		VehicleID:  id,
		LineName:   "33",
		Latitude:   lat,
		Longitude:  lon,
		ObservedAt: at,
	}
}

func TestIsApproachingRequiresHistory(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	curr := sample("tram-1", testStopLat+0.005, testStopLon, now)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("a vehicle seen only once cannot be approaching")
	}
}

func TestIsApproachingMovingTowardStop(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	// ~1.1 km out 25 s ago, ~556 m out now: ~22 m/s toward the stop.
	prev := sample("tram-1", testStopLat+0.01, testStopLon, now.Add(-30*time.Second))
	curr := sample("tram-1", testStopLat+0.005, testStopLon, now.Add(-5*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if !det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("vehicle closing fast on the stop should be approaching")
	}
}

func TestIsApproachingRejectsStaleFix(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	prev := sample("tram-1", testStopLat+0.01, testStopLon, now.Add(-120*time.Second))
	curr := sample("tram-1", testStopLat+0.005, testStopLon, now.Add(-90*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("fix older than the staleness limit should be rejected")
	}
}

func TestIsApproachingRejectsInsufficientProgress(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	// About 5 m of progress, under the tolerance. GPS jitter territory.
	prev := sample("tram-1", testStopLat+0.01000, testStopLon, now.Add(-30*time.Second))
	curr := sample("tram-1", testStopLat+0.00996, testStopLon, now.Add(-5*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("progress within the tolerance should not count as approaching")
	}
}

func TestIsApproachingRejectsMovingAway(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	prev := sample("tram-1", testStopLat+0.005, testStopLon, now.Add(-30*time.Second))
	curr := sample("tram-1", testStopLat+0.01, testStopLon, now.Add(-5*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("vehicle moving away should not be approaching")
	}
}

func TestIsApproachingRejectsSlowDrift(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	// ~22 m of progress over 60 s is under the minimum approach rate.
	prev := sample("tram-1", testStopLat+0.0100, testStopLon, now.Add(-65*time.Second))
	curr := sample("tram-1", testStopLat+0.0098, testStopLon, now.Add(-5*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("drift below the minimum approach rate should be rejected")
	}
}

func TestIsApproachingRejectsNoiseNearStop(t *testing.T) {
	now := time.Now()
	det, cache := newDetector(now)

	// Inside the near-stop radius with under 5 m of movement.
	det.heur.ApproachToleranceMeters = 0
	prev := sample("tram-1", testStopLat+0.00030, testStopLon, now.Add(-30*time.Second))
	curr := sample("tram-1", testStopLat+0.00027, testStopLon, now.Add(-5*time.Second))
	cache.Record(prev)
	cache.Record(curr)

	if det.isApproaching(curr, testStopLat, testStopLon) {
		t.Error("tiny movement next to the stop should be treated as noise")
	}
}
