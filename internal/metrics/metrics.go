// Package metrics holds the Prometheus collectors of the viewer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cicdguard"

// Metrics contains the collectors shared by every view.
type Metrics struct {
	registry *prometheus.Registry

	ReloadsStarted   prometheus.Counter
	ReloadsRendered  prometheus.Counter
	ReloadsDiscarded prometheus.Counter
	ReloadErrors     *prometheus.CounterVec
	ReloadDuration   prometheus.Histogram
	GraphNodes       prometheus.Gauge
	GraphEdges       prometheus.Gauge
	OpenViews        prometheus.Gauge
	ScanEvents       *prometheus.CounterVec
}

// New creates the collectors on a private registry together with the Go
// runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ReloadsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "reloads_started_total",
			Help:      "Total number of graph reloads started",
		}),
		ReloadsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "reloads_rendered_total",
			Help:      "Total number of reloads drawn onto a canvas",
		}),
		ReloadsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "reloads_discarded_total",
			Help:      "Total number of stale responses dropped",
		}),
		ReloadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "reload_errors_total",
			Help:      "Total number of failed reloads by kind",
		}, []string{"kind"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "reload_duration_seconds",
			Help:      "Time from request to drawn graph",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "graph_nodes",
			Help:      "Nodes in the most recently drawn graph",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "graph_edges",
			Help:      "Edges in the most recently drawn graph",
		}),
		OpenViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "views",
			Name:      "open",
			Help:      "Number of open views",
		}),
		ScanEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "scan_events_total",
			Help:      "Scan completion events by outcome",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.ReloadsStarted,
		m.ReloadsRendered,
		m.ReloadsDiscarded,
		m.ReloadErrors,
		m.ReloadDuration,
		m.GraphNodes,
		m.GraphEdges,
		m.OpenViews,
		m.ScanEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ReloadStarted() {
	m.ReloadsStarted.Inc()
}

func (m *Metrics) ReloadRendered(seconds float64, nodes, edges int) {
	m.ReloadsRendered.Inc()
	m.ReloadDuration.Observe(seconds)
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

func (m *Metrics) ReloadDiscarded() {
	m.ReloadsDiscarded.Inc()
}

func (m *Metrics) ReloadFailed(kind string) {
	m.ReloadErrors.WithLabelValues(kind).Inc()
}
