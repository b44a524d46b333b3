package history

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

// maxSamples is the per-vehicle window size. Two samples are enough to tell
// whether a vehicle is moving toward a stop; older fixes carry no signal.
const maxSamples = 2

type entry struct {
	samples  []vehicles.Observation // ordered by ObservedAt ascending
	lastSeen time.Time
}

// Cache keeps the most recent position samples per vehicle. It is the only
// shared mutable state in the estimation core; all access goes through its
// internal mutex. Construct one per estimator and inject it, so tests get
// isolated instances.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache creates an empty position history cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Record appends an observation to the vehicle's history. Re-delivery of the
// same timestamp is a no-op, and an observation older than the newest stored
// sample is rejected so out-of-order delivery cannot corrupt the
// previous/current ordering.
func (c *Cache) Record(obs vehicles.Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[obs.VehicleID]
	if !ok {
		e = &entry{}
		c.entries[obs.VehicleID] = e
	}
	e.lastSeen = time.Now()

	if n := len(e.samples); n > 0 && !obs.ObservedAt.After(e.samples[n-1].ObservedAt) {
		return
	}

	e.samples = append(e.samples, obs)
	if len(e.samples) > maxSamples {
		e.samples = e.samples[len(e.samples)-maxSamples:]
	}
}

// Previous returns the second-newest sample for the vehicle, or false when
// fewer than two samples have been recorded.
func (c *Cache) Previous(vehicleID string) (vehicles.Observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[vehicleID]
	if !ok || len(e.samples) < maxSamples {
		return vehicles.Observation{}, false
	}
	return e.samples[len(e.samples)-maxSamples], true
}

// Len returns the number of tracked vehicles
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes vehicles not seen for longer than maxAge and returns the
// number of evicted entries. Keeps the cache bounded by the active fleet
// instead of growing with every vehicle id ever observed.
func (c *Cache) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, e := range c.entries {
		if e.lastSeen.Before(cutoff) {
			delete(c.entries, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep every interval until the context is cancelled
func (c *Cache) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := c.Sweep(maxAge); n > 0 {
					log.Printf("History: evicted %d stale vehicles (%d tracked)", n, c.Len())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
