package history

import (
	"sync"
	"testing"
	"time"

	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

func obs(id string, ts time.Time, lat float64) vehicles.Observation {
	return vehicles.Observation{
		VehicleID:  id,
		LineName:   "33",
		Latitude:   lat,
		Longitude:  17.03,
		ObservedAt: ts,
	}
}

func TestPreviousRequiresTwoSamples(t *testing.T) {
	c := NewCache()
	now := time.Now()

	if _, ok := c.Previous("v1"); ok {
		t.Fatal("Previous should report not-found for unknown vehicle")
	}

	c.Record(obs("v1", now, 51.10))
	if _, ok := c.Previous("v1"); ok {
		t.Fatal("Previous should report not-found with a single sample")
	}

	c.Record(obs("v1", now.Add(10*time.Second), 51.11))
	prev, ok := c.Previous("v1")
	if !ok {
		t.Fatal("Previous should find the older sample")
	}
	if prev.Latitude != 51.10 {
		t.Errorf("Previous returned latitude %v, expected 51.10", prev.Latitude)
	}
}

func TestRecordIdempotent(t *testing.T) {
	c := NewCache()
	now := time.Now()

	c.Record(obs("v1", now, 51.10))
	c.Record(obs("v1", now.Add(10*time.Second), 51.11))
	// Same timestamp again must leave the history unchanged
	c.Record(obs("v1", now.Add(10*time.Second), 51.12))

	prev, ok := c.Previous("v1")
	if !ok {
		t.Fatal("expected two samples")
	}
	if prev.Latitude != 51.10 {
		t.Errorf("duplicate timestamp displaced previous sample: got latitude %v", prev.Latitude)
	}
}

func TestRecordRejectsOutOfOrder(t *testing.T) {
	c := NewCache()
	now := time.Now()

	c.Record(obs("v1", now, 51.10))
	c.Record(obs("v1", now.Add(10*time.Second), 51.11))
	// A stale sample delivered late must not become the "previous" one
	c.Record(obs("v1", now.Add(-30*time.Second), 51.05))

	prev, ok := c.Previous("v1")
	if !ok {
		t.Fatal("expected two samples")
	}
	if prev.Latitude != 51.10 {
		t.Errorf("out-of-order sample corrupted history: got latitude %v", prev.Latitude)
	}
}

func TestRecordKeepsOnlyTwoNewest(t *testing.T) {
	c := NewCache()
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(obs("v1", now.Add(time.Duration(i)*10*time.Second), 51.10+float64(i)*0.01))
	}

	prev, ok := c.Previous("v1")
	if !ok {
		t.Fatal("expected two samples")
	}
	// Second-newest of the five
	if prev.Latitude != 51.13 {
		t.Errorf("Previous latitude = %v, expected 51.13", prev.Latitude)
	}
}

func TestSweepEvictsStaleVehicles(t *testing.T) {
	c := NewCache()
	now := time.Now()

	c.Record(obs("old", now, 51.10))
	c.entries["old"].lastSeen = now.Add(-time.Hour)
	c.Record(obs("fresh", now, 51.11))

	if n := c.Sweep(10 * time.Minute); n != 1 {
		t.Errorf("Sweep evicted %d entries, expected 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d vehicles, expected 1", c.Len())
	}
}

func TestRecordConcurrent(t *testing.T) {
	c := NewCache()
	base := time.Now()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(obs("v1", base.Add(time.Duration(i)*time.Second), 51.1))
				c.Record(obs("v2", base.Add(time.Duration(i)*time.Second), 51.2))
				c.Previous("v1")
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 2 {
		t.Errorf("cache holds %d vehicles, expected 2", c.Len())
	}
}
