package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// FactAssertion is a request to assert (entity, attribute, value) as of an
// effective date. Entity is a display name, resolved (and created if needed)
// by the assertion itself.
type FactAssertion struct {
	Entity        string
	EntityType    string // optional; used only when the entity is created
	Attribute     string
	Value         string
	Source        string
	EffectiveDate string // YYYY-MM-DD; defaults to today (UTC)
}

// AssertFact applies the supersession algorithm for a single fact:
//
//  1. no currently-valid fact for (entity, attribute) -> insert, created
//  2. normalized values equal -> skipped (exact duplicate)
//  3. one normalized value contains the other -> keep the longer; skip if the
//     existing one is at least as long, supersede otherwise
//  4. materially different -> close the existing fact and open the new one
//
// The ordering exact -> containment -> supersede must hold: reversing steps
// would let terser values overwrite detailed ones. Close+insert happens in
// one transaction, so the at-most-one-current invariant survives crashes.
func (l *Ledger) AssertFact(ctx context.Context, a FactAssertion) (Outcome, error) {
	start := time.Now()

	if err := a.validate(); err != nil {
		l.metrics.RecordOutcome(ctx, "assert_fact", string(OutcomeRejected))
		return OutcomeRejected, err
	}
	if a.EffectiveDate == "" {
		a.EffectiveDate = store.Today()
	}

	var outcome Outcome
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		e, _, err := resolveEntity(ctx, tx, a.Entity, a.EntityType, "")
		if err != nil {
			return err
		}
		outcome, err = assertFactTx(ctx, tx, e.ID, a)
		return err
	})
	if err != nil {
		l.metrics.RecordError(ctx, "assert_fact", store.ClassifyError(err))
		l.metrics.RecordOperation(ctx, "assert_fact", "error", time.Since(start).Milliseconds())
		return "", err
	}

	l.log.Debug("fact asserted",
		"entity", a.Entity, "attribute", a.Attribute, "outcome", string(outcome))
	l.metrics.RecordOutcome(ctx, "assert_fact", string(outcome))
	l.metrics.RecordOperation(ctx, "assert_fact", "success", time.Since(start).Milliseconds())
	return outcome, nil
}

func (a FactAssertion) validate() error {
	if strings.TrimSpace(a.Entity) == "" {
		return fmt.Errorf("%w: fact entity is required", store.ErrInvalidRecord)
	}
	if strings.TrimSpace(a.Attribute) == "" {
		return fmt.Errorf("%w: fact attribute is required", store.ErrInvalidRecord)
	}
	if strings.TrimSpace(a.Value) == "" {
		return fmt.Errorf("%w: fact value is required", store.ErrInvalidRecord)
	}
	return nil
}

// assertFactTx runs the supersession algorithm against a resolved entity
// inside an open transaction.
func assertFactTx(ctx context.Context, tx *store.Tx, entityID string, a FactAssertion) (Outcome, error) {
	existing, err := tx.CurrentFact(ctx, entityID, a.Attribute)
	if err != nil {
		return "", err
	}

	newFact := &store.Fact{
		EntityID:  entityID,
		Attribute: a.Attribute,
		Value:     a.Value,
		Source:    a.Source,
		ValidFrom: a.EffectiveDate,
	}

	if existing == nil {
		if err := tx.InsertFact(ctx, newFact); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	}

	oldNorm := normalizeValue(existing.Value)
	newNorm := normalizeValue(a.Value)

	if oldNorm == newNorm {
		return OutcomeSkipped, nil
	}

	// Rephrasing check: one value wholly contained in the other. Keep the
	// longer (more detailed) one so noisy near-duplicate extractions don't
	// overwrite a detailed fact with a terser one.
	if strings.Contains(oldNorm, newNorm) || strings.Contains(newNorm, oldNorm) {
		if len(oldNorm) >= len(newNorm) {
			return OutcomeSkippedLessDetail, nil
		}
	}

	newFact.ID = store.NewID()
	if err := tx.CloseFact(ctx, existing.ID, a.EffectiveDate, newFact.ID); err != nil {
		return "", err
	}
	if err := tx.InsertFact(ctx, newFact); err != nil {
		return "", err
	}
	return OutcomeSuperseded, nil
}

// normalizeValue prepares a fact value for comparison.
func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
