// Package metrics provides Prometheus metrics collection for knowledge base
// operations.
package metrics

import "context"

// Collector is the interface for metrics collection. Implementations include
// the Prometheus-backed collector and the no-op collector used when metrics
// are not wired up.
type Collector interface {
	// RecordOperation records the completion of a store operation
	// (ingest, assert_fact, merge, recompute_domains, ...) with its status.
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)

	// RecordOutcome records a single write outcome (created, superseded,
	// skipped, dropped, ...) under an operation.
	RecordOutcome(ctx context.Context, operation string, outcome string)

	// RecordError records an error occurrence by operation and error type.
	RecordError(ctx context.Context, operation string, errorType string)

	// SetTableCount sets the current row count for one of the store's tables.
	SetTableCount(ctx context.Context, table string, count int64)
}
