// Package arrivals fuses the static timetable with live vehicle positions
// into a ranked list of upcoming arrivals for a stop.
package arrivals

import (
	"context"
	"errors"
	"time"

	"github.com/pawelptak/EmPeKa/internal/timetable"
)

// ErrStopNotFound is returned when the requested stop code does not exist
// in the timetable.
var ErrStopNotFound = errors.New("stop not found")

// Candidate is one upcoming arrival at a stop
type Candidate struct {
	Line          string `json:"line"`
	Direction     string `json:"direction"`
	EtaMinutes    int    `json:"etaMinutes"`
	IsRealTime    bool   `json:"isRealTime"`
	DelayMinutes  *int   `json:"delayMinutes,omitempty"`
	ScheduledTime string `json:"scheduledTime"`
}

// Result is the arrival list for a single stop
type Result struct {
	StopCode string      `json:"stopCode"`
	StopName string      `json:"stopName"`
	Arrivals []Candidate `json:"arrivals"`
}

// Timetable is the slice of the timetable store the estimator needs
type Timetable interface {
	StopByCode(ctx context.Context, code string) (*timetable.Stop, error)
	ActiveDepartures(ctx context.Context, stopID, date string, weekday time.Weekday) ([]timetable.Departure, error)
	TripsByIDs(ctx context.Context, tripIDs []string) (map[string]timetable.Trip, error)
	RoutesByIDs(ctx context.Context, routeIDs []string) (map[string]timetable.Route, error)
}
