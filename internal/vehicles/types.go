package vehicles

import (
	"context"
	"time"
)

// Mode discriminates tram and bus feeds. The upstream endpoint is queried
// separately per mode and matching thresholds differ between the two.
type Mode string

const (
	ModeTram Mode = "tram"
	ModeBus  Mode = "bus"
)

// Observation is a single live GPS sample for one vehicle
type Observation struct {
	VehicleID  string
	LineName   string
	Latitude   float64
	Longitude  float64
	ObservedAt time.Time
}

// Source provides live vehicle positions for a set of lines.
// Implementations degrade to an empty result on partial upstream failures;
// a returned error means the whole fetch for that mode failed.
type Source interface {
	PositionsForLines(ctx context.Context, lines []string, mode Mode) ([]Observation, error)
}
