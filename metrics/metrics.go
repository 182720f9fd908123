// Package metrics exposes Prometheus collectors for a link check run. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelProtocol = "protocol"
	labelStatus   = "status"
	labelResult   = "result"
)

// Metrics holds the collectors of one run on a private registry, so several
// runs in one process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter
	cache    *prometheus.CounterVec
	inflight prometheus.Gauge
	links    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlc_checks_total",
				Help: "Physical check attempts by protocol and status code.",
			},
			[]string{labelProtocol, labelStatus},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mlc_check_duration_seconds",
				Help:    "Duration of physical check attempts.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{labelProtocol},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mlc_retries_total",
			Help: "Check attempts repeated after a transient failure or 429.",
		}),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlc_cache_lookups_total",
				Help: "Link results served from (hit) or added to (miss) the session cache.",
			},
			[]string{labelResult},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlc_checks_inflight",
			Help: "Checks currently in progress.",
		}),
		links: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlc_links_total",
				Help: "Verified links by final status.",
			},
			[]string{labelStatus},
		),
	}

	m.registry.MustRegister(m.checks, m.duration, m.retries, m.cache, m.inflight, m.links)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCheck records one physical check attempt.
func (m *Metrics) ObserveCheck(protocol string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(protocol, statusLabel(statusCode)).Inc()
	m.duration.WithLabelValues(protocol).Observe(d.Seconds())
}

// Retry records a repeated attempt.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
	} else {
		m.cache.WithLabelValues("miss").Inc()
	}
}

// Link records the final status of a verified link.
func (m *Metrics) Link(status string) {
	if m == nil {
		return
	}
	m.links.WithLabelValues(status).Inc()
}

// Inflight marks a check as started and returns the function ending it.
func (m *Metrics) Inflight() func() {
	if m == nil {
		return func() {}
	}
	m.inflight.Inc()
	return m.inflight.Dec
}

// WriteToTextfile writes the current values in the text exposition format,
// for the node_exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func statusLabel(code int) string {
	if code == 0 {
		return "none"
	}
	return strconv.Itoa(code)
}
