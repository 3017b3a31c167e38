// Package metrics exposes Prometheus metrics for parsed documents and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// Document outcomes.
const (
	StatusClean    = "clean"
	StatusWarnings = "warnings"
	StatusFailed   = "failed"
)

// Collector owns a registry and every metric recorded by the service. A
// disabled collector ignores all updates.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	documentsTotal *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	warningsTotal  *prometheus.CounterVec
	bytesTotal     *prometheus.CounterVec
	parseDuration  *prometheus.HistogramVec

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector registers the metrics in registry, or in a fresh registry when
// registry is nil.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = config.DefaultMetricsNamespace
	}

	c := &Collector{
		enabled:  cfg.Enabled,
		registry: registry,

		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "documents_total",
				Help:      "Documents parsed, by source and outcome",
			},
			[]string{"source", "status"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "records_total",
				Help:      "Records produced by the parser",
			},
			[]string{"source"},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "warnings_total",
				Help:      "Parser warnings, by kind",
			},
			[]string{"source", "kind"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "input_bytes_total",
				Help:      "Bytes of CSV input consumed",
			},
			[]string{"source"},
		),
		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "parse_duration_seconds",
				Help:      "Time spent parsing one document",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~2m
			},
			[]string{"source"},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests, by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	registry.MustRegister(
		c.documentsTotal,
		c.recordsTotal,
		c.warningsTotal,
		c.bytesTotal,
		c.parseDuration,
		c.requestsTotal,
		c.requestDuration,
	)
	return c
}

// Enabled reports whether updates are recorded.
func (c *Collector) Enabled() bool { return c != nil && c.enabled }

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordDocument records one parsed document. A non-nil err marks the
// document failed; otherwise its status depends on whether warnings were
// raised.
func (c *Collector) RecordDocument(source string, records int, size int64, warnings []csv.Warning, d time.Duration, err error) {
	if !c.Enabled() {
		return
	}

	status := StatusClean
	switch {
	case err != nil:
		status = StatusFailed
	case len(warnings) > 0:
		status = StatusWarnings
	}

	c.documentsTotal.WithLabelValues(source, status).Inc()
	c.recordsTotal.WithLabelValues(source).Add(float64(records))
	c.bytesTotal.WithLabelValues(source).Add(float64(size))
	c.parseDuration.WithLabelValues(source).Observe(d.Seconds())
	for _, w := range warnings {
		c.warningsTotal.WithLabelValues(source, string(w.Kind)).Inc()
	}
}

// ObserveRequest records one served HTTP request. route is the matched
// pattern, not the raw path.
func (c *Collector) ObserveRequest(route, method string, code int, d time.Duration) {
	if !c.Enabled() {
		return
	}
	c.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
