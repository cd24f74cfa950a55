package store

import (
	"context"
	"fmt"
)

// UpsertDomain writes a domain assignment, replacing any existing row for the
// same (entity, domain). Safe to re-run: recomputation is idempotent.
func (s queries) UpsertDomain(ctx context.Context, a *DomainAssignment) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT OR REPLACE INTO entity_domains (entity_id, domain, confidence, source)
		 VALUES (?, ?, ?, ?)`,
		a.EntityID, a.Domain, a.Confidence, a.Source)
	if err != nil {
		return fmt.Errorf("failed to upsert domain assignment: %w", err)
	}
	return nil
}

// DomainsByEntity returns an entity's domain assignments, highest confidence
// first.
func (s queries) DomainsByEntity(ctx context.Context, entityID string) ([]*DomainAssignment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT entity_id, domain, confidence, COALESCE(source, '') FROM entity_domains
		 WHERE entity_id = ? ORDER BY confidence DESC, domain`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domain assignments: %w", err)
	}
	defer rows.Close()

	var out []*DomainAssignment
	for rows.Next() {
		var a DomainAssignment
		if err := rows.Scan(&a.EntityID, &a.Domain, &a.Confidence, &a.Source); err != nil {
			return nil, fmt.Errorf("failed to scan domain assignment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// DeleteDomainsForEntity removes all of an entity's domain assignments.
func (s queries) DeleteDomainsForEntity(ctx context.Context, entityID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM entity_domains WHERE entity_id = ?", entityID)
	if err != nil {
		return fmt.Errorf("failed to delete domain assignments: %w", err)
	}
	return nil
}

// EntitiesByDomain returns the entities tagged with a domain, ordered by
// currently-valid fact count descending, with confidence annotation.
func (s queries) EntitiesByDomain(ctx context.Context, domain string) ([]*DomainEntity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.created_at, e.updated_at, d.confidence, COUNT(f.id)
		FROM entity_domains d
		JOIN entities e ON d.entity_id = e.id
		LEFT JOIN facts f ON f.entity_id = e.id AND f.valid_to IS NULL
		WHERE d.domain = ?
		GROUP BY e.id
		ORDER BY COUNT(f.id) DESC, e.name`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities by domain: %w", err)
	}
	defer rows.Close()

	var out []*DomainEntity
	for rows.Next() {
		var de DomainEntity
		var typ string
		if err := rows.Scan(&de.ID, &de.Name, &typ, &de.CreatedAt, &de.UpdatedAt, &de.Confidence, &de.FactCount); err != nil {
			return nil, fmt.Errorf("failed to scan domain entity: %w", err)
		}
		de.Type = EntityType(typ)
		out = append(out, &de)
	}
	return out, rows.Err()
}
