// Package metrics provides Prometheus metrics for the JSON:API client.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "jsonapi_client"

// Collector holds all Prometheus metrics for the client.
type Collector struct {
	// Transport metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	TransportErrors  *prometheus.CounterVec

	// Endpoint metrics
	EndpointCalls *prometheus.CounterVec

	// Decode metrics
	DecodedResources *prometheus.CounterVec
	DecodeErrors     *prometheus.CounterVec
}

// New creates a collector registered with the default registry.
func New(namespace string) *Collector {
	return build(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewWithRegistry creates a collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer, namespace string) *Collector {
	return build(promauto.With(reg), namespace)
}

func build(factory promauto.Factory, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of JSON:API requests sent",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "JSON:API request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of JSON:API requests currently in flight",
			},
		),
		TransportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_errors_total",
				Help:      "Total number of transport failures by type",
			},
			[]string{"type"},
		),
		EndpointCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "endpoint_calls_total",
				Help:      "Total endpoint calls by endpoint, operation and outcome",
			},
			[]string{"endpoint", "operation", "outcome"},
		),
		DecodedResources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decoded_resources_total",
				Help:      "Total primary resources decoded successfully",
			},
			[]string{"type"},
		),
		DecodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_errors_total",
				Help:      "Total decode errors by kind",
			},
			[]string{"kind"},
		),
	}
}

// StatusClass reduces a status code to 2xx, 3xx, 4xx or 5xx.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}

// WriteTextfile writes the gathered metrics in text format, for
// node_exporter's textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
