package arrivals

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pawelptak/EmPeKa/internal/config"
	"github.com/pawelptak/EmPeKa/internal/gtfs"
	"github.com/pawelptak/EmPeKa/internal/history"
	"github.com/pawelptak/EmPeKa/internal/metrics"
	"github.com/pawelptak/EmPeKa/internal/stats"
	"github.com/pawelptak/EmPeKa/internal/timetable"
	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

// Estimator computes arrival lists by fusing scheduled departures with
// live vehicle positions. Live data is strictly an enrichment: any failure
// on the position side degrades the answer to schedule-only output.
type Estimator struct {
	timetable Timetable
	source    vehicles.Source
	history   *history.Cache
	heur      config.Heuristics
	location  *time.Location

	metrics *metrics.Collector
	delays  *stats.DelayTracker

	batchSem chan struct{}

	now func() time.Time
}

// NewEstimator wires an estimator. col and delays may be nil to disable
// instrumentation. batchConcurrency caps how many stops a batch request
// computes at once.
func NewEstimator(tt Timetable, source vehicles.Source, hist *history.Cache, heur config.Heuristics, loc *time.Location, batchConcurrency int, col *metrics.Collector, delays *stats.DelayTracker) *Estimator {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &Estimator{
		timetable: tt,
		source:    source,
		history:   hist,
		heur:      heur,
		location:  loc,
		metrics:   col,
		delays:    delays,
		batchSem:  make(chan struct{}, batchConcurrency),
		now:       time.Now,
	}
}

// scheduled is a fully resolved candidate before live enrichment
type scheduled struct {
	line       string
	mode       vehicles.Mode
	direction  string
	occurrence time.Time
	daySeconds int
}

// GetArrivals returns the next arrivals at the stop with the given code.
// count caps the returned list; zero or negative means the default.
func (e *Estimator) GetArrivals(ctx context.Context, stopCode string, count int) (*Result, error) {
	start := e.now()
	res, err := e.getArrivals(ctx, stopCode, count)
	e.metrics.ObserveRequest(e.now().Sub(start).Seconds())
	switch {
	case err == nil:
		e.metrics.RequestOutcome("ok")
	case errors.Is(err, ErrStopNotFound):
		e.metrics.RequestOutcome("not_found")
	default:
		e.metrics.RequestOutcome("error")
	}
	return res, err
}

func (e *Estimator) getArrivals(ctx context.Context, stopCode string, count int) (*Result, error) {
	stop, err := e.timetable.StopByCode(ctx, stopCode)
	if err != nil {
		if errors.Is(err, timetable.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStopNotFound, stopCode)
		}
		return nil, fmt.Errorf("failed to resolve stop %s: %w", stopCode, err)
	}

	now := e.now().In(e.location)
	candidates, err := e.upcoming(ctx, stop.ID, now)
	if err != nil {
		return nil, err
	}

	observations := e.fetchPositions(ctx, candidates)

	if count <= 0 {
		count = e.heur.DefaultCount
	}
	arrivals := e.enrich(candidates, observations, stop.Lat, stop.Lon, now)
	if len(arrivals) > count {
		arrivals = arrivals[:count]
	}

	return &Result{StopCode: stop.Code, StopName: stop.Name, Arrivals: arrivals}, nil
}

// upcoming resolves the next scheduled calls at a stop, sorted by wall
// time and capped at the candidate limit. Departures up to the grace
// window in the past still count; anything older rolls over to tomorrow,
// which keeps late-night stops populated across midnight.
func (e *Estimator) upcoming(ctx context.Context, stopID string, now time.Time) ([]scheduled, error) {
	date := now.Format("20060102")
	departures, err := e.timetable.ActiveDepartures(ctx, stopID, date, now.Weekday())
	if err != nil {
		return nil, fmt.Errorf("failed to load departures for stop %s: %w", stopID, err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := now.Add(-time.Duration(e.heur.GraceWindowMinutes) * time.Minute)

	type depOcc struct {
		dep timetable.Departure
		occ time.Time
	}
	occs := make([]depOcc, 0, len(departures))
	for _, dep := range departures {
		if dep.ArrivalSeconds < 0 {
			continue
		}
		occ := midnight.Add(time.Duration(dep.ArrivalSeconds) * time.Second)
		if occ.Before(cutoff) {
			occ = occ.Add(24 * time.Hour)
		}
		occs = append(occs, depOcc{dep: dep, occ: occ})
	}
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].occ.Before(occs[j].occ) })
	if len(occs) > e.heur.CandidateLimit {
		occs = occs[:e.heur.CandidateLimit]
	}

	// Resolve line names and headsigns for the surviving window only,
	// in two batched lookups.
	tripIDs := make([]string, 0, len(occs))
	routeIDs := make([]string, 0, len(occs))
	for _, o := range occs {
		tripIDs = append(tripIDs, o.dep.TripID)
		routeIDs = append(routeIDs, o.dep.RouteID)
	}

	trips, err := e.timetable.TripsByIDs(ctx, tripIDs)
	if err != nil {
		log.Printf("Arrivals: trip lookup failed, directions unavailable: %v", err)
		trips = map[string]timetable.Trip{}
	}
	routes, err := e.timetable.RoutesByIDs(ctx, routeIDs)
	if err != nil {
		log.Printf("Arrivals: route lookup failed, dropping unresolved candidates: %v", err)
		routes = map[string]timetable.Route{}
	}

	kept := make([]scheduled, 0, len(occs))
	for _, o := range occs {
		route, ok := routes[o.dep.RouteID]
		if !ok {
			continue
		}
		s := scheduled{
			line:       strings.ToUpper(route.ShortName),
			mode:       modeForRouteType(route.Type),
			occurrence: o.occ,
			daySeconds: o.dep.ArrivalSeconds,
		}
		if trip, ok := trips[o.dep.TripID]; ok {
			s.direction = trip.Headsign
		}
		kept = append(kept, s)
	}
	return kept, nil
}

// fetchPositions queries the live feed for the distinct lines in the
// candidate window, one call per mode, concurrently. A failed mode is
// logged and yields no observations; the candidates of that mode fall
// back to the schedule.
func (e *Estimator) fetchPositions(ctx context.Context, candidates []scheduled) []vehicles.Observation {
	byMode := map[vehicles.Mode][]string{}
	seen := map[string]bool{}
	for _, c := range candidates {
		key := string(c.mode) + ":" + c.line
		if c.line == "" || seen[key] {
			continue
		}
		seen[key] = true
		byMode[c.mode] = append(byMode[c.mode], c.line)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []vehicles.Observation
	)
	for mode, lines := range byMode {
		wg.Add(1)
		go func(mode vehicles.Mode, lines []string) {
			defer wg.Done()
			obs, err := e.source.PositionsForLines(ctx, lines, mode)
			if err != nil {
				log.Printf("Arrivals: %s position fetch failed, serving schedule only: %v", mode, err)
				e.metrics.FeedError(string(mode))
				return
			}
			mu.Lock()
			all = append(all, obs...)
			mu.Unlock()
		}(mode, lines)
	}
	wg.Wait()

	for _, obs := range all {
		e.history.Record(obs)
	}
	e.metrics.SetTrackedVehicles(e.history.Len())
	return all
}

// enrich turns the scheduled window into the final candidate list:
// live-matched where a vehicle is demonstrably approaching, schedule-only
// otherwise, deduplicated per run and sorted by ETA.
func (e *Estimator) enrich(candidates []scheduled, observations []vehicles.Observation, stopLat, stopLon float64, now time.Time) []Candidate {
	det := &detector{history: e.history, heur: e.heur, now: e.now}

	type dedupKey struct {
		line       string
		direction  string
		daySeconds int
	}
	seen := map[dedupKey]bool{}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := dedupKey{line: c.line, direction: c.direction, daySeconds: c.daySeconds}
		if seen[key] {
			continue
		}
		seen[key] = true

		scheduledEta := int(c.occurrence.Sub(now).Minutes())
		if scheduledEta < 0 {
			scheduledEta = 0
		}

		eta, isRealTime, delay := scheduledEta, false, (*int)(nil)
		maxDist := e.heur.BusMatchRadiusMeters
		if c.mode == vehicles.ModeTram {
			maxDist = e.heur.TramMatchRadiusMeters
		}
		if obs, dist, ok := findClosest(observations, c.line, stopLat, stopLon, maxDist); ok {
			if det.isApproaching(obs, stopLat, stopLon) {
				eta, isRealTime, delay = fuse(scheduledEta, dist, e.heur)
			}
		}

		if isRealTime {
			e.metrics.CandidateRealtime()
			if delay != nil {
				e.delays.Record(c.line, float64(*delay))
			}
		} else {
			e.metrics.CandidateScheduleOnly()
		}

		out = append(out, Candidate{
			Line:          c.line,
			Direction:     c.direction,
			EtaMinutes:    eta,
			IsRealTime:    isRealTime,
			DelayMinutes:  delay,
			ScheduledTime: gtfs.FormatTimeOfDay(c.daySeconds),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].EtaMinutes < out[j].EtaMinutes })
	return out
}

func modeForRouteType(routeType int) vehicles.Mode {
	if routeType == gtfs.RouteTypeTram {
		return vehicles.ModeTram
	}
	return vehicles.ModeBus
}
