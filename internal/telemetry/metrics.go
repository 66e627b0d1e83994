// ABOUTME: Prometheus instrumentation for the session write path.
// ABOUTME: Counts submissions and sync outcomes, tracks queue depth and connectivity.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "caretrack"

// Submission modes.
const (
	ModeOnline = "online"
	ModeQueued = "queued"
)

// Sync entry outcomes.
const (
	OutcomeSynced = "synced"
	OutcomeFailed = "failed"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submitted   *prometheus.CounterVec
	syncEntries *prometheus.CounterVec
	syncRuns    prometheus.Counter
	pending     prometheus.Gauge
	online      prometheus.Gauge
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_submitted_total",
			Help:      "Sessions submitted, by write mode.",
		}, []string{"mode"}),
		syncEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_entries_total",
			Help:      "Pending entries processed by sync passes, by outcome.",
		}, []string{"outcome"}),
		syncRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Completed sync passes.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_sessions",
			Help:      "Sessions waiting in the local pending queue.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 when the remote store is reachable, 0 otherwise.",
		}),
	}
	m.registry.MustRegister(m.submitted, m.syncEntries, m.syncRuns, m.pending, m.online)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Submitted counts one submitted session.
func (m *Metrics) Submitted(mode string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(mode).Inc()
}

// SyncPass records the result of one sync pass.
func (m *Metrics) SyncPass(synced, failed int) {
	if m == nil {
		return
	}
	m.syncRuns.Inc()
	m.syncEntries.WithLabelValues(OutcomeSynced).Add(float64(synced))
	m.syncEntries.WithLabelValues(OutcomeFailed).Add(float64(failed))
}

// SetPending records the current queue depth.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// SetOnline records the connectivity state.
func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
		return
	}
	m.online.Set(0)
}
