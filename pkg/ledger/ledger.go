// Package ledger implements the knowledge base write contracts: entity
// resolution, fact assertion with supersession, relation assertion, decision
// logging, and batch ingestion from the extraction producer.
//
// Writes are serialized by the caller (single-writer discipline); every
// multi-step operation runs inside one store transaction.
package ledger

import (
	"io"
	"log/slog"

	"github.com/kkaufmann/knowledge-base/pkg/metrics"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Outcome reports what a single assertion did.
type Outcome string

const (
	// OutcomeCreated - a new currently-valid row was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeSuperseded - the existing currently-valid fact was closed and a
	// new one opened.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeSkipped - exact duplicate or idempotent no-op; nothing written.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSkippedLessDetail - the new value is a rephrasing wholly
	// contained in a longer existing value; nothing written.
	OutcomeSkippedLessDetail Outcome = "skipped_less_detail"
	// OutcomeEnded - a currently-valid relation was closed.
	OutcomeEnded Outcome = "ended"
	// OutcomeDropped - a relation referenced an entity that could not be
	// resolved; the relation was discarded.
	OutcomeDropped Outcome = "dropped"
	// OutcomeRejected - the record was malformed (missing required field).
	OutcomeRejected Outcome = "rejected"
)

// Ledger owns all mutation of the knowledge base tables.
type Ledger struct {
	store   *store.Store
	log     *slog.Logger
	metrics metrics.Collector
}

// New creates a Ledger over the given store. Logger and collector may be nil.
func New(st *store.Store, logger *slog.Logger, collector metrics.Collector) *Ledger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Ledger{store: st, log: logger, metrics: collector}
}
