// Package metrics provides Prometheus metrics for the content engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values.
const (
	Encode = "encode"
	Decode = "decode"
)

// Outcome label values.
const (
	Success = "success"
	Failure = "failure"
)

// Collector holds the engine's metrics.
type Collector struct {
	// Encode and decode calls by mimetype, operation and outcome.
	Operations *prometheus.CounterVec
	// Encode and decode duration by mimetype and operation.
	Duration *prometheus.HistogramVec
	// Values dropped by the recursion guard, by mimetype.
	Omitted *prometheus.CounterVec
	// Schema cache lookups by result.
	SchemaCache *prometheus.CounterVec
}

// New creates a collector registered with the default prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spanmarshal",
				Name:      "operations_total",
				Help:      "Total number of encode and decode calls",
			},
			[]string{"mimetype", "operation", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spanmarshal",
				Name:      "operation_duration_seconds",
				Help:      "Encode and decode duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"mimetype", "operation"},
		),
		Omitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spanmarshal",
				Name:      "recursions_omitted_total",
				Help:      "Total number of values omitted by the recursion guard",
			},
			[]string{"mimetype"},
		),
		SchemaCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spanmarshal",
				Name:      "schema_cache_total",
				Help:      "Total number of schema cache lookups",
			},
			[]string{"result"},
		),
	}
}

// Observe records one encode or decode call. A nil collector records nothing.
func (collector *Collector) Observe(
	mimeType string, operation string, err error, elapsed time.Duration,
) {
	if collector == nil {
		return
	}

	outcome := Success
	if err != nil {
		outcome = Failure
	}
	collector.Operations.WithLabelValues(mimeType, operation, outcome).Inc()
	collector.Duration.WithLabelValues(mimeType, operation).Observe(elapsed.Seconds())
}

// AddOmitted records count omitted values for mimeType.
func (collector *Collector) AddOmitted(mimeType string, count int) {
	if collector == nil || count <= 0 {
		return
	}
	collector.Omitted.WithLabelValues(mimeType).Add(float64(count))
}

// CacheLookup records a schema cache hit or miss.
func (collector *Collector) CacheLookup(hit bool) {
	if collector == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	collector.SchemaCache.WithLabelValues(result).Inc()
}
