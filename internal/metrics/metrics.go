// Package metrics exposes the broker's Prometheus collectors. One Metrics
// value implements every observer hook the domain packages accept.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carbroker"

type Metrics struct {
	registry *prometheus.Registry

	ActiveLocks      prometheus.Gauge
	LockPersistFails prometheus.Counter
	BookingAttempts  *prometheus.CounterVec
	BookingLatency   prometheus.Histogram
	Cancellations    *prometheus.CounterVec
	VendorCalls      *prometheus.CounterVec
	VendorLatency    *prometheus.HistogramVec
	EventsPublished  *prometheus.CounterVec
}

// New registers every collector on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveLocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reservation_locks_active",
			Help:      "Number of vehicle/date-range locks currently held.",
		}),
		LockPersistFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_lock_persist_failures_total",
			Help:      "Lock set writes to the backing store that failed.",
		}),
		BookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by result.",
		}, []string{"result"}), // committed, ambiguous, rejected, conflict, lock_timeout
		BookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Wall time of a booking attempt including the wait for the vehicle.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 45},
		}),
		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellations by whether the vendor acknowledged them.",
		}, []string{"vendor_acknowledged"}),
		VendorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_calls_total",
			Help:      "Calls to the rental vendor API.",
		}, []string{"operation", "outcome"}),
		VendorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vendor_call_duration_seconds",
			Help:      "Latency of rental vendor API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Reservation events handed to Kafka.",
		}, []string{"event_type", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ActiveLocks,
		m.LockPersistFails,
		m.BookingAttempts,
		m.BookingLatency,
		m.Cancellations,
		m.VendorCalls,
		m.VendorLatency,
		m.EventsPublished,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) LocksChanged(active int) {
	m.ActiveLocks.Set(float64(active))
}

func (m *Metrics) PersistFailed() {
	m.LockPersistFails.Inc()
}

func (m *Metrics) BookingFinished(result string, elapsed time.Duration) {
	m.BookingAttempts.WithLabelValues(result).Inc()
	m.BookingLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) CancelFinished(vendorAcknowledged bool) {
	label := "false"
	if vendorAcknowledged {
		label = "true"
	}
	m.Cancellations.WithLabelValues(label).Inc()
}

func (m *Metrics) VendorCall(operation, outcome string, elapsed time.Duration) {
	m.VendorCalls.WithLabelValues(operation, outcome).Inc()
	m.VendorLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) MessagePublished(_, eventType string, err error, _ time.Duration) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}
