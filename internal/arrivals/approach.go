package arrivals

import (
	"time"

	"github.com/pawelptak/EmPeKa/internal/config"
	"github.com/pawelptak/EmPeKa/internal/geo"
	"github.com/pawelptak/EmPeKa/internal/history"
	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

// detector decides whether a vehicle is moving toward a stop based on its
// two most recent position samples.
type detector struct {
	history *history.Cache
	heur    config.Heuristics
	now     func() time.Time
}

// isApproaching reports whether the vehicle behind obs is closing in on the
// stop. It needs a previous sample from the history cache; a vehicle seen
// for the first time is never considered approaching. The latest fix must
// be fresh, the vehicle must have gained meaningfully on the stop, and it
// must be moving fast enough to be in motion rather than GPS-jittering.
func (d *detector) isApproaching(obs vehicles.Observation, stopLat, stopLon float64) bool {
	prev, ok := d.history.Previous(obs.VehicleID)
	if !ok {
		return false
	}

	age := d.now().Sub(obs.ObservedAt).Seconds()
	if age > d.heur.StaleFixSeconds {
		return false
	}

	currDist := geo.Distance(obs.Latitude, obs.Longitude, stopLat, stopLon)
	prevDist := geo.Distance(prev.Latitude, prev.Longitude, stopLat, stopLon)

	progress := prevDist - currDist
	if progress <= d.heur.ApproachToleranceMeters {
		return false
	}

	// Near the stop small gains are likely noise or a vehicle dwelling
	// at the platform.
	if currDist < d.heur.NearStopRadiusMeters && progress < d.heur.NearStopMinProgressMeters {
		return false
	}

	elapsed := obs.ObservedAt.Sub(prev.ObservedAt).Seconds()
	if elapsed <= 0 {
		return false
	}
	rate := progress / elapsed
	return rate >= d.heur.MinApproachRateMPS
}
