package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// RelationAssertion is a request to assert (or end) a directed edge between
// two entities identified by name.
type RelationAssertion struct {
	From          string
	RelationType  string
	To            string
	Ended         bool
	EffectiveDate string // YYYY-MM-DD; defaults to today (UTC)
}

// AssertRelation resolves both endpoints by name and then either closes the
// currently-valid matching edge (Ended) or idempotently inserts a new one.
//
// Endpoints are never created here: a relation referencing an entity that
// cannot be resolved is noise, not an error, and is dropped with
// OutcomeDropped so callers can still observe the discard. Relations are
// never superseded in place; a changed edge goes through ended + re-asserted.
func (l *Ledger) AssertRelation(ctx context.Context, a RelationAssertion) (Outcome, error) {
	start := time.Now()

	if err := a.validate(); err != nil {
		l.metrics.RecordOutcome(ctx, "assert_relation", string(OutcomeRejected))
		return OutcomeRejected, err
	}
	if a.EffectiveDate == "" {
		a.EffectiveDate = store.Today()
	}

	var outcome Outcome
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		outcome, err = assertRelationTx(ctx, tx, a, nil)
		return err
	})
	if err != nil {
		l.metrics.RecordError(ctx, "assert_relation", store.ClassifyError(err))
		l.metrics.RecordOperation(ctx, "assert_relation", "error", time.Since(start).Milliseconds())
		return "", err
	}

	if outcome == OutcomeDropped {
		l.log.Debug("relation dropped, endpoint unresolvable",
			"from", a.From, "relation", a.RelationType, "to", a.To)
	}
	l.metrics.RecordOutcome(ctx, "assert_relation", string(outcome))
	l.metrics.RecordOperation(ctx, "assert_relation", "success", time.Since(start).Milliseconds())
	return outcome, nil
}

func (a RelationAssertion) validate() error {
	if strings.TrimSpace(a.From) == "" || strings.TrimSpace(a.To) == "" {
		return fmt.Errorf("%w: relation endpoints are required", store.ErrInvalidRecord)
	}
	if strings.TrimSpace(a.RelationType) == "" {
		return fmt.Errorf("%w: relation type is required", store.ErrInvalidRecord)
	}
	return nil
}

// assertRelationTx applies a relation assertion inside an open transaction.
// entityIDs is an optional batch-local cache of lowercased name -> id for
// entities resolved earlier in the same batch.
func assertRelationTx(ctx context.Context, tx *store.Tx, a RelationAssertion, entityIDs map[string]string) (Outcome, error) {
	fromID, err := lookupEndpoint(ctx, tx, a.From, entityIDs)
	if err != nil {
		return "", err
	}
	toID, err := lookupEndpoint(ctx, tx, a.To, entityIDs)
	if err != nil {
		return "", err
	}
	if fromID == "" || toID == "" {
		return OutcomeDropped, nil
	}

	if a.Ended {
		n, err := tx.CloseRelations(ctx, fromID, a.RelationType, toID, a.EffectiveDate)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return OutcomeSkipped, nil
		}
		return OutcomeEnded, nil
	}

	existing, err := tx.CurrentRelation(ctx, fromID, a.RelationType, toID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return OutcomeSkipped, nil
	}

	r := &store.Relation{
		FromEntityID: fromID,
		RelationType: a.RelationType,
		ToEntityID:   toID,
		ValidFrom:    a.EffectiveDate,
	}
	if err := tx.InsertRelation(ctx, r); err != nil {
		return "", err
	}
	return OutcomeCreated, nil
}

func lookupEndpoint(ctx context.Context, tx *store.Tx, name string, entityIDs map[string]string) (string, error) {
	if id, ok := entityIDs[strings.ToLower(name)]; ok {
		return id, nil
	}
	e, err := tx.FindEntityByName(ctx, name)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", nil
	}
	return e.ID, nil
}
