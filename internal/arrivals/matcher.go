package arrivals

import (
	"math"
	"strings"

	"github.com/pawelptak/EmPeKa/internal/geo"
	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

// findClosest returns the observation on the given line closest to the stop,
// together with its distance in meters. Line comparison is case-insensitive.
// Vehicles at or beyond maxDistance are not considered a match.
func findClosest(observations []vehicles.Observation, line string, stopLat, stopLon, maxDistance float64) (vehicles.Observation, float64, bool) {
	var (
		best     vehicles.Observation
		bestDist = math.Inf(1)
		found    bool
	)
	for _, obs := range observations {
		if !strings.EqualFold(obs.LineName, line) {
			continue
		}
		d := geo.Distance(obs.Latitude, obs.Longitude, stopLat, stopLon)
		if d < maxDistance && d < bestDist {
			best = obs
			bestDist = d
			found = true
		}
	}
	return best, bestDist, found
}
