package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Resolve maps an entity name to its stable identifier, creating the entity
// if it does not exist. Matching is case-insensitive exact-name. The proposed
// type is validated against the closed vocabulary; unknown values coerce to
// concept. If domain is non-empty and the entity is newly created, an initial
// full-confidence domain assignment is recorded.
func (l *Ledger) Resolve(ctx context.Context, name, proposedType, domain string) (string, error) {
	var id string
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		e, _, err := resolveEntity(ctx, tx, name, proposedType, domain)
		if err != nil {
			return err
		}
		id = e.ID
		return nil
	})
	if err != nil {
		l.metrics.RecordError(ctx, "resolve", store.ClassifyError(err))
		return "", err
	}
	return id, nil
}

// resolveEntity is the transaction-scoped resolver shared by every write
// path. Returns the entity and whether it was created by this call.
func resolveEntity(ctx context.Context, tx *store.Tx, name, proposedType, domain string) (*store.Entity, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: entity name is required", store.ErrInvalidRecord)
	}

	e, err := tx.FindEntityByName(ctx, name)
	if err != nil {
		return nil, false, err
	}

	if e != nil {
		if err := tx.TouchEntity(ctx, e.ID, store.NowUTC()); err != nil {
			return nil, false, err
		}
		return e, false, nil
	}

	e = &store.Entity{
		Name: name,
		Type: store.NormalizeEntityType(proposedType),
	}
	if err := tx.InsertEntity(ctx, e); err != nil {
		return nil, false, err
	}

	if domain != "" {
		a := &store.DomainAssignment{
			EntityID:   e.ID,
			Domain:     domain,
			Confidence: 1.0,
			Source:     "resolver",
		}
		if err := tx.UpsertDomain(ctx, a); err != nil {
			return nil, false, err
		}
	}

	return e, true, nil
}
