package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's Prometheus instruments behind a private
// registry. A nil *Collector is valid and turns every method into a no-op,
// so instrumentation stays optional in tests.
type Collector struct {
	reg *prometheus.Registry

	ArrivalRequests *prometheus.CounterVec // outcome label: ok|not_found|error

	RealtimeCandidates     prometheus.Counter
	ScheduleOnlyCandidates prometheus.Counter

	FeedErrors      *prometheus.CounterVec // mode label: tram|bus
	TrackedVehicles prometheus.Gauge

	RequestDuration prometheus.Histogram
	BatchDuration   prometheus.Histogram
}

// NewCollector creates and registers the service instruments
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ArrivalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empeka_arrival_requests_total",
			Help: "Arrival requests by outcome.",
		}, []string{"outcome"}),
		RealtimeCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "empeka_realtime_candidates_total",
			Help: "Arrival candidates enriched with live vehicle data.",
		}),
		ScheduleOnlyCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "empeka_schedule_only_candidates_total",
			Help: "Arrival candidates served from the timetable alone.",
		}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empeka_feed_errors_total",
			Help: "Live position fetch failures per mode.",
		}, []string{"mode"}),
		TrackedVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "empeka_tracked_vehicles",
			Help: "Vehicles currently held in the position history cache.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "empeka_arrival_request_duration_seconds",
			Help:    "Duration of single-stop arrival computations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "empeka_batch_duration_seconds",
			Help:    "Duration of batch arrival computations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	reg.MustRegister(
		c.ArrivalRequests,
		c.RealtimeCandidates, c.ScheduleOnlyCandidates,
		c.FeedErrors, c.TrackedVehicles,
		c.RequestDuration, c.BatchDuration,
	)

	return c
}

// Handler returns the /metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// RequestOutcome counts one arrival request with the given outcome
func (c *Collector) RequestOutcome(outcome string) {
	if c == nil {
		return
	}
	c.ArrivalRequests.WithLabelValues(outcome).Inc()
}

// CandidateRealtime counts a candidate that used live data
func (c *Collector) CandidateRealtime() {
	if c == nil {
		return
	}
	c.RealtimeCandidates.Inc()
}

// CandidateScheduleOnly counts a candidate served from the timetable
func (c *Collector) CandidateScheduleOnly() {
	if c == nil {
		return
	}
	c.ScheduleOnlyCandidates.Inc()
}

// FeedError counts a live feed failure for the given mode
func (c *Collector) FeedError(mode string) {
	if c == nil {
		return
	}
	c.FeedErrors.WithLabelValues(mode).Inc()
}

// SetTrackedVehicles records the current history cache size
func (c *Collector) SetTrackedVehicles(n int) {
	if c == nil {
		return
	}
	c.TrackedVehicles.Set(float64(n))
}

// ObserveRequest records the duration of a single-stop computation
func (c *Collector) ObserveRequest(seconds float64) {
	if c == nil {
		return
	}
	c.RequestDuration.Observe(seconds)
}

// ObserveBatch records the duration of a batch computation
func (c *Collector) ObserveBatch(seconds float64) {
	if c == nil {
		return
	}
	c.BatchDuration.Observe(seconds)
}
