// Package stats keeps running delay statistics per line using Welford's
// online algorithm, so mean and spread stay numerically stable without
// retaining individual samples.
package stats

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Running accumulates a stream of values one at a time.
type Running struct {
	count int64
	mean  float64
	m2    float64
}

// Push adds a value to the accumulator
func (r *Running) Push(x float64) {
	r.count++
	delta := x - r.mean
	r.mean += delta / float64(r.count)
	r.m2 += delta * (x - r.mean)
}

// Count returns the number of samples seen
func (r *Running) Count() int64 { return r.count }

// Mean returns the running mean, or 0 with no samples
func (r *Running) Mean() float64 { return r.mean }

// Variance returns the sample variance, or 0 with fewer than two samples
func (r *Running) Variance() float64 {
	if r.count < 2 {
		return 0
	}
	return r.m2 / float64(r.count-1)
}

// StdDev returns the sample standard deviation
func (r *Running) StdDev() float64 {
	return math.Sqrt(r.Variance())
}

// LineDelay is a point-in-time summary of one line's observed delays.
type LineDelay struct {
	Line        string    `json:"line"`
	Samples     int64     `json:"samples"`
	MeanMinutes float64   `json:"meanMinutes"`
	StdDev      float64   `json:"stdDevMinutes"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type lineEntry struct {
	running   Running
	updatedAt time.Time
}

// DelayTracker aggregates observed delays per line. A nil *DelayTracker is
// valid and ignores all calls.
type DelayTracker struct {
	mu    sync.Mutex
	lines map[string]*lineEntry
	now   func() time.Time
}

func NewDelayTracker() *DelayTracker {
	return &DelayTracker{
		lines: make(map[string]*lineEntry),
		now:   time.Now,
	}
}

// Record adds one observed delay, in minutes, for a line
func (t *DelayTracker) Record(line string, delayMinutes float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.lines[line]
	if !ok {
		e = &lineEntry{}
		t.lines[line] = e
	}
	e.running.Push(delayMinutes)
	e.updatedAt = t.now()
}

// Snapshot returns the per-line summaries sorted by line name
func (t *DelayTracker) Snapshot() []LineDelay {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LineDelay, 0, len(t.lines))
	for line, e := range t.lines {
		out = append(out, LineDelay{
			Line:        line,
			Samples:     e.running.Count(),
			MeanMinutes: e.running.Mean(),
			StdDev:      e.running.StdDev(),
			UpdatedAt:   e.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
