// Package metrics exposes Prometheus counters for gate decisions and
// snapshot refreshes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evn/versiongate/internal/appversion"
)

const namespace = "versiongate"

// Metrics holds all counters. Each instance registers on its own registry so
// tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Decisions          *prometheus.CounterVec
	InvalidVersions    *prometheus.CounterVec
	SnapshotReadErrors prometheus.Counter
	Refreshes          *prometheus.CounterVec
	FetchFailures      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "decisions_total",
				Help:      "Version gate decisions by platform and status",
			},
			[]string{"platform", "status", "in_grace_period"},
		),
		InvalidVersions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "invalid_versions_total",
				Help:      "Requests whose X-App-Version could not be parsed",
			},
			[]string{"platform"},
		),
		SnapshotReadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "snapshot_read_errors_total",
				Help:      "Snapshot store reads that failed and were treated as no snapshot",
			},
		),
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "runs_total",
				Help:      "Snapshot refresh runs by outcome",
			},
			[]string{"outcome"},
		),
		FetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "fetch_failures_total",
				Help:      "Catalog lookups that failed, by reason",
			},
			[]string{"reason"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveDecision(p appversion.Platform, d appversion.Decision) {
	grace := "false"
	if d.InGracePeriod {
		grace = "true"
	}
	m.Decisions.WithLabelValues(platformLabel(p), string(d.Status), grace).Inc()
	if d.InvalidVersion {
		m.InvalidVersions.WithLabelValues(platformLabel(p)).Inc()
	}
}

func (m *Metrics) SnapshotReadFailed() {
	m.SnapshotReadErrors.Inc()
}

// RefreshCompleted implements appversion.Observer.
func (m *Metrics) RefreshCompleted(outcome appversion.RefreshOutcome) {
	m.Refreshes.WithLabelValues(string(outcome)).Inc()
}

// FetchFailed implements appversion.Observer.
func (m *Metrics) FetchFailed(reason string) {
	m.FetchFailures.WithLabelValues(reason).Inc()
}

// platformLabel keeps label cardinality bounded: clients choose the header.
func platformLabel(p appversion.Platform) string {
	if p.Known() {
		return string(p)
	}
	return "unknown"
}
