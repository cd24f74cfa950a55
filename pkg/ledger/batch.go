package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Batch is the boundary shape supplied by the extraction producer: four
// ordered lists of proposed records. Field names follow the producer's JSON
// output.
type Batch struct {
	Entities  []EntityRecord   `json:"entities"`
	Facts     []FactRecord     `json:"facts"`
	Relations []RelationRecord `json:"relations"`
	Decisions []DecisionRecord `json:"decisions"`
}

// EntityRecord proposes an entity by display name and type.
type EntityRecord struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FactRecord proposes a fact about a named entity. Supersedes carries the
// producer's hint about the value being replaced; it is provenance only and
// does not influence the supersession algorithm.
type FactRecord struct {
	EntityName string `json:"entity_name"`
	Attribute  string `json:"attribute"`
	Value      string `json:"value"`
	Supersedes string `json:"supersedes,omitempty"`
}

// RelationRecord proposes a directed edge between two named entities.
type RelationRecord struct {
	From     string `json:"from"`
	Relation string `json:"relation"`
	To       string `json:"to"`
	Ended    bool   `json:"ended"`
}

// DecisionRecord proposes a decision log entry.
type DecisionRecord struct {
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
}

// BatchStats counts what a batch ingestion did. Silent no-ops (skips, drops)
// are reported here rather than surfaced as errors, so callers can detect
// them.
type BatchStats struct {
	EntitiesCreated        int
	EntitiesResolved       int
	FactsCreated           int
	FactsSuperseded        int
	FactsSkipped           int
	FactsSkippedLessDetail int
	RelationsCreated       int
	RelationsEnded         int
	RelationsSkipped       int
	RelationsDropped       int
	DecisionsLogged        int
	Rejected               int
}

// IngestBatch integrates one producer batch into the knowledge base inside a
// single transaction: entities first, then facts (which may implicitly create
// entities not present in the entity list), then relations, then decisions.
//
// A malformed record (missing required field) is rejected and counted; it
// never aborts the rest of the batch. Storage failures abort the whole batch
// with nothing committed.
func (l *Ledger) IngestBatch(ctx context.Context, b Batch, source, effectiveDate string) (*BatchStats, error) {
	start := time.Now()
	if effectiveDate == "" {
		effectiveDate = store.Today()
	}

	stats := &BatchStats{}
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		// Batch-local cache of lowercased name -> id, mirroring the
		// resolution order guarantee: later lists see entities resolved by
		// earlier ones.
		entityIDs := make(map[string]string)

		for _, ent := range b.Entities {
			if strings.TrimSpace(ent.Name) == "" {
				stats.Rejected++
				continue
			}
			e, created, err := resolveEntity(ctx, tx, ent.Name, ent.Type, "")
			if err != nil {
				return err
			}
			entityIDs[strings.ToLower(strings.TrimSpace(ent.Name))] = e.ID
			if created {
				stats.EntitiesCreated++
			} else {
				stats.EntitiesResolved++
			}
		}

		for _, f := range b.Facts {
			a := FactAssertion{
				Entity:        f.EntityName,
				Attribute:     f.Attribute,
				Value:         f.Value,
				Source:        source,
				EffectiveDate: effectiveDate,
			}
			if err := a.validate(); err != nil {
				stats.Rejected++
				continue
			}

			id, ok := entityIDs[strings.ToLower(strings.TrimSpace(f.EntityName))]
			if !ok {
				e, created, err := resolveEntity(ctx, tx, f.EntityName, "", "")
				if err != nil {
					return err
				}
				id = e.ID
				entityIDs[strings.ToLower(strings.TrimSpace(f.EntityName))] = id
				if created {
					stats.EntitiesCreated++
				}
			}

			outcome, err := assertFactTx(ctx, tx, id, a)
			if err != nil {
				return err
			}
			switch outcome {
			case OutcomeCreated:
				stats.FactsCreated++
			case OutcomeSuperseded:
				stats.FactsSuperseded++
			case OutcomeSkipped:
				stats.FactsSkipped++
			case OutcomeSkippedLessDetail:
				stats.FactsSkippedLessDetail++
			}
			l.metrics.RecordOutcome(ctx, "ingest_fact", string(outcome))
		}

		for _, r := range b.Relations {
			a := RelationAssertion{
				From:          r.From,
				RelationType:  r.Relation,
				To:            r.To,
				Ended:         r.Ended,
				EffectiveDate: effectiveDate,
			}
			if err := a.validate(); err != nil {
				stats.Rejected++
				continue
			}

			outcome, err := assertRelationTx(ctx, tx, a, entityIDs)
			if err != nil {
				return err
			}
			switch outcome {
			case OutcomeCreated:
				stats.RelationsCreated++
			case OutcomeEnded:
				stats.RelationsEnded++
			case OutcomeSkipped:
				stats.RelationsSkipped++
			case OutcomeDropped:
				stats.RelationsDropped++
			}
			l.metrics.RecordOutcome(ctx, "ingest_relation", string(outcome))
		}

		for _, d := range b.Decisions {
			if strings.TrimSpace(d.Title) == "" {
				stats.Rejected++
				continue
			}
			err := tx.InsertDecision(ctx, &store.Decision{
				Title:     d.Title,
				Rationale: d.Rationale,
				DecidedAt: effectiveDate,
			})
			if err != nil {
				return err
			}
			stats.DecisionsLogged++
		}

		return nil
	})
	if err != nil {
		l.metrics.RecordError(ctx, "ingest", store.ClassifyError(err))
		l.metrics.RecordOperation(ctx, "ingest", "error", time.Since(start).Milliseconds())
		return nil, err
	}

	l.log.Info("batch ingested",
		"source", source,
		"date", effectiveDate,
		"entities_created", stats.EntitiesCreated,
		"facts_created", stats.FactsCreated,
		"facts_superseded", stats.FactsSuperseded,
		"relations_created", stats.RelationsCreated,
		"relations_dropped", stats.RelationsDropped,
		"decisions", stats.DecisionsLogged,
		"rejected", stats.Rejected)
	l.metrics.RecordOperation(ctx, "ingest", "success", time.Since(start).Milliseconds())
	return stats, nil
}
