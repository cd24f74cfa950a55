package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides Prometheus metrics collection for knowledge base
// operations.
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	outcomesTotal     *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	tableRows         *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_operations_total",
			Help: "Total number of knowledge base operations by type and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kb_operation_duration_seconds",
			Help:    "Duration of knowledge base operations by type",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"operation"},
	)

	outcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_write_outcomes_total",
			Help: "Write outcomes (created, superseded, skipped, dropped) by operation",
		},
		[]string{"operation", "outcome"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_errors_total",
			Help: "Total number of errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	tableRows := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kb_table_rows",
			Help: "Current row count per knowledge base table (current rows only for versioned tables)",
		},
		[]string{"table"},
	)

	registry.MustRegister(operationsTotal)
	registry.MustRegister(operationDuration)
	registry.MustRegister(outcomesTotal)
	registry.MustRegister(errorsTotal)
	registry.MustRegister(tableRows)

	return &MetricsCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		outcomesTotal:     outcomesTotal,
		errorsTotal:       errorsTotal,
		tableRows:         tableRows,
		registry:          registry,
	}
}

// RecordOperation records the completion of an operation
func (m *MetricsCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

// RecordOutcome records a single write outcome under an operation
func (m *MetricsCollector) RecordOutcome(ctx context.Context, operation string, outcome string) {
	m.outcomesTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordError records an error occurrence
func (m *MetricsCollector) RecordError(ctx context.Context, operation string, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetTableCount sets the current row count for a table
func (m *MetricsCollector) SetTableCount(ctx context.Context, table string, count int64) {
	m.tableRows.WithLabelValues(table).Set(float64(count))
}

// Registry returns the Prometheus registry for HTTP exposure
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
