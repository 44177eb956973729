// Package prometheus implements metrics.Collector using client_golang. It is
// a separate package so the core module never pulls in the Prometheus
// dependency for callers who don't want it.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vsirisanthana/dogbutler/metrics"
)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	storeOps     *prometheus.CounterVec
	storeOpSecs  *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	requestSecs  *prometheus.HistogramVec
	responseSize *prometheus.CounterVec
}

// Config configures a Collector.
type Config struct {
	// Registry is the registerer to use. Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
	// Namespace prefixes every metric name. Defaults to "dogbutler".
	Namespace string
	// Subsystem further scopes metric names. Optional.
	Subsystem string
	// ConstLabels are attached to every metric. Optional.
	ConstLabels prometheus.Labels
}

// New creates a Collector with default registry and namespace.
func New() *Collector { return NewWithConfig(Config{}) }

// NewWithRegistry creates a Collector registered against reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return NewWithConfig(Config{Registry: reg})
}

// NewWithConfig creates a Collector from an explicit Config.
func NewWithConfig(config Config) *Collector {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = "dogbutler"
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		storeOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem,
			Name: "store_operations_total", Help: "Total KeyValueStore operations.",
			ConstLabels: config.ConstLabels,
		}, []string{"operation", "backend", "result"}),
		storeOpSecs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem,
			Name: "store_operation_duration_seconds", Help: "KeyValueStore operation latency.",
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			ConstLabels: config.ConstLabels,
		}, []string{"operation", "backend"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem,
			Name: "requests_total", Help: "Total Session.Do calls.",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "cache_status", "status_code"}),
		requestSecs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem,
			Name: "request_duration_seconds", Help: "Session.Do latency.",
			Buckets:     []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
			ConstLabels: config.ConstLabels,
		}, []string{"method", "cache_status"}),
		responseSize: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem,
			Name: "response_size_bytes_total", Help: "Total response body bytes.",
			ConstLabels: config.ConstLabels,
		}, []string{"cache_status"}),
	}
}

func (c *Collector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
	c.storeOps.WithLabelValues(operation, backend, result).Inc()
	c.storeOpSecs.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

func (c *Collector) RecordRequest(method, cacheStatus string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, cacheStatus, strconv.Itoa(statusCode)).Inc()
	c.requestSecs.WithLabelValues(method, cacheStatus).Observe(duration.Seconds())
}

func (c *Collector) RecordResponseSize(cacheStatus string, sizeBytes int64) {
	c.responseSize.WithLabelValues(cacheStatus).Add(float64(sizeBytes))
}

var _ metrics.Collector = (*Collector)(nil)
