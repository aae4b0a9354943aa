// Package metrics owns the Prometheus registry the server exposes on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "servicelocator"

type Metrics struct {
	registry *prometheus.Registry

	// Requests counts endpoint calls by method and outcome.
	Requests *prometheus.CounterVec
	// Latency observes endpoint duration in seconds by method.
	Latency *prometheus.HistogramVec
	// Explored observes how many cells a nearest-service search expanded.
	Explored prometheus.Histogram
	// PathLength observes the distance of successful searches.
	PathLength prometheus.Histogram
	// Occupancy holds the number of open records by type.
	Occupancy *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Endpoint calls by method and outcome.",
		}, []string{"method", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Endpoint latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Explored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_explored_cells",
			Help:      "Cells expanded per nearest-service search.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		PathLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_path_distance",
			Help:      "Step count of returned paths.",
			Buckets:   prometheus.LinearBuckets(0, 2, 16),
		}),
		Occupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_services",
			Help:      "Open directory records by type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.Requests, m.Latency, m.Explored, m.PathLength, m.Occupancy,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
