// Package telemetry provides run metrics and tracing for the exporter.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "athenahistory"

// Metrics holds the exporter's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	recordsExported prometheus.Counter
	objectsWritten  prometheus.Counter
	throttled       *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastSuccess     prometheus.Gauge
}

// NewMetrics creates and registers the exporter metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Query execution records written to the history log.",
		}),
		objectsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_written_total",
			Help:      "History log objects written.",
		}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_requests_total",
			Help:      "Query service requests rejected for exceeding the request rate.",
		}, []string{"operation"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Export runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of export runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful export run.",
		}),
	}

	m.registry.MustRegister(
		m.recordsExported,
		m.objectsWritten,
		m.throttled,
		m.runs,
		m.runDuration,
		m.lastSuccess,
	)
	return m
}

// Registry returns the registry holding the exporter metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFlush records one history log object holding n records.
func (m *Metrics) ObserveFlush(n int) {
	m.objectsWritten.Inc()
	m.recordsExported.Add(float64(n))
}

// ObserveThrottle records a throttled request for operation.
func (m *Metrics) ObserveThrottle(operation string) {
	m.throttled.WithLabelValues(operation).Inc()
}

// ObserveRun records the outcome of a run.
func (m *Metrics) ObserveRun(elapsed time.Duration, err error) {
	m.runDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.SetToCurrentTime()
}

// Push sends the current metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
