// Package metrics holds the Prometheus registry and the collectors the
// service reports to.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "usergraph"

// Operation outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry owns a private Prometheus registry with runtime collectors and
// the GraphQL operation metrics.
type Registry struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operations_total",
			Help:      "Total number of GraphQL operations",
		}, []string{"type", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operation_duration_seconds",
			Help:      "GraphQL operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}

	r.registry.MustRegister(
		r.operations,
		r.operationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// ObserveOperation records one finished operation. opType is the GraphQL
// operation type (query, mutation) or "invalid" for requests rejected
// before execution.
func (r *Registry) ObserveOperation(opType, status string, elapsed time.Duration) {
	r.operations.WithLabelValues(opType, status).Inc()
	r.operationDuration.WithLabelValues(opType).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
