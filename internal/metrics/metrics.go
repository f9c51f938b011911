// Package metrics exposes Prometheus collectors for the state store and the
// session catalog.
//
// Collectors are registered on a caller-supplied registerer rather than the
// global default so several stores (and tests) can coexist in one process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as the "op" label.
const (
	OpSave     = "save"
	OpRestore  = "restore"
	OpDelete   = "delete"
	OpExists   = "exists"
	OpListKeys = "list_keys"
)

// Metrics holds the statebox collectors.
type Metrics struct {
	// Store metrics
	Operations *prometheus.CounterVec
	Failures   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Bytes      *prometheus.CounterVec

	// Catalog metrics
	SessionsListed  prometheus.Counter
	SessionsSkipped prometheus.Counter

	// Lifecycle metrics
	LifecycleEvents *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebox_store_operations_total",
				Help: "Total number of state store operations",
			},
			[]string{"op"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebox_store_failures_total",
				Help: "Total number of failed state store operations",
			},
			[]string{"op"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statebox_store_operation_duration_seconds",
				Help:    "State store operation latency including queueing",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"op"},
		),
		Bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebox_store_bytes_total",
				Help: "Encrypted bytes written or read",
			},
			[]string{"direction"},
		),
		SessionsListed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statebox_sessions_listed_total",
			Help: "Sessions returned by catalog listings",
		}),
		SessionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statebox_sessions_skipped_total",
			Help: "Unreadable sessions skipped by catalog listings",
		}),
		LifecycleEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebox_lifecycle_events_total",
				Help: "Lifecycle events published on the bus",
			},
			[]string{"event"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.Operations, m.Failures, m.Duration, m.Bytes,
			m.SessionsListed, m.SessionsSkipped, m.LifecycleEvents,
		)
	}
	return m
}

// ObserveOp records one store operation. Nil receivers are ignored so callers
// need no guard when metrics are disabled.
func (m *Metrics) ObserveOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.Failures.WithLabelValues(op).Inc()
	}
}

// AddBytes counts encrypted bytes moved in direction "read" or "write".
func (m *Metrics) AddBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.Bytes.WithLabelValues(direction).Add(float64(n))
}

// ObserveListing records one catalog listing.
func (m *Metrics) ObserveListing(listed, skipped int) {
	if m == nil {
		return
	}
	m.SessionsListed.Add(float64(listed))
	m.SessionsSkipped.Add(float64(skipped))
}

// ObserveLifecycle counts a published lifecycle event.
func (m *Metrics) ObserveLifecycle(event string) {
	if m == nil {
		return
	}
	m.LifecycleEvents.WithLabelValues(event).Inc()
}
