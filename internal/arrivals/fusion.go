package arrivals

import (
	"math"

	"github.com/pawelptak/EmPeKa/internal/config"
)

// fuse decides the displayed ETA for a candidate given its scheduled ETA in
// minutes and the matched, approaching vehicle's distance to the stop.
//
// A vehicle practically at the stop with an imminent schedule yields an
// immediate arrival. Otherwise a distance-based estimate at average urban
// speed replaces the schedule, but only when the two roughly agree; a wild
// disagreement means the vehicle is probably serving a different run, so
// the schedule wins and no live claim is made.
func fuse(scheduledEta int, distance float64, heur config.Heuristics) (eta int, isRealTime bool, delay *int) {
	if distance < heur.ImminentDistanceMeters && scheduledEta <= heur.ImminentScheduleMinutes {
		return 0, true, delayFrom(0, scheduledEta)
	}

	if distance < heur.RealtimeMaxDistanceMeters {
		estimate := int(math.Ceil(distance / heur.AverageSpeedMPS / 60))
		if estimate < 1 {
			estimate = 1
		}
		diff := estimate - scheduledEta
		if diff >= -heur.ToleranceMinutes && diff <= heur.ToleranceMinutes {
			return estimate, true, delayFrom(estimate, scheduledEta)
		}
	}

	return scheduledEta, false, nil
}

// delayFrom reports the live deviation from the schedule, or nil when the
// vehicle is on time to the minute.
func delayFrom(eta, scheduledEta int) *int {
	diff := eta - scheduledEta
	if diff == 0 {
		return nil
	}
	return &diff
}
