package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertFact adds a new fact row. Generates ID and CreatedAt when not provided.
// The new fact is currently valid (ValidTo nil) unless the caller set ValidTo.
func (s queries) InsertFact(ctx context.Context, f *Fact) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = NowUTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO facts (id, entity_id, attribute, value, source, valid_from, valid_to, superseded_by, created_at)
		 VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)`,
		f.ID, f.EntityID, f.Attribute, f.Value, f.Source, f.ValidFrom, f.ValidTo, f.SupersededBy, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}
	return nil
}

// CurrentFact returns the currently-valid fact for (entity, attribute), or
// (nil, nil) if none exists. The write path guarantees at most one such row.
func (s queries) CurrentFact(ctx context.Context, entityID, attribute string) (*Fact, error) {
	row := s.q.QueryRowContext(ctx,
		selectFact+" WHERE entity_id = ? AND attribute = ? AND valid_to IS NULL", entityID, attribute)
	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current fact: %w", err)
	}
	return f, nil
}

// GetFact retrieves a fact by ID. Returns (nil, nil) if not found.
func (s queries) GetFact(ctx context.Context, id string) (*Fact, error) {
	row := s.q.QueryRowContext(ctx, selectFact+" WHERE id = ?", id)
	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fact: %w", err)
	}
	return f, nil
}

// CloseFact ends a fact's validity interval and records which fact closed it.
func (s queries) CloseFact(ctx context.Context, id, validTo, supersededBy string) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE facts SET valid_to = ?, superseded_by = ? WHERE id = ?", validTo, supersededBy, id)
	if err != nil {
		return fmt.Errorf("failed to close fact: %w", err)
	}
	return nil
}

// FactsByEntity returns an entity's facts. With includeClosed, superseded
// facts are included, ordered so the most recent version per attribute comes
// first; otherwise only currently-valid facts, ordered by attribute.
func (s queries) FactsByEntity(ctx context.Context, entityID string, includeClosed bool) ([]*Fact, error) {
	query := selectFact + " WHERE entity_id = ? AND valid_to IS NULL ORDER BY attribute"
	if includeClosed {
		query = selectFact + " WHERE entity_id = ? ORDER BY attribute, valid_from DESC, created_at DESC"
	}

	rows, err := s.q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// CurrentFactCount returns the number of currently-valid facts for an entity.
func (s queries) CurrentFactCount(ctx context.Context, entityID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM facts WHERE entity_id = ? AND valid_to IS NULL", entityID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return n, nil
}

// ReassignFact re-points a fact at a different entity, preserving its
// validity interval and provenance. Used by entity merges.
func (s queries) ReassignFact(ctx context.Context, factID, entityID string) error {
	_, err := s.q.ExecContext(ctx, "UPDATE facts SET entity_id = ? WHERE id = ?", entityID, factID)
	if err != nil {
		return fmt.Errorf("failed to reassign fact: %w", err)
	}
	return nil
}

// ListFactSources returns (entity, source) for every fact carrying a source
// label, across all validity intervals. Feeds the domain classifier's scan.
func (s queries) ListFactSources(ctx context.Context) ([]FactSource, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT entity_id, source FROM facts WHERE source IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to list fact sources: %w", err)
	}
	defer rows.Close()

	var out []FactSource
	for rows.Next() {
		var fs FactSource
		if err := rows.Scan(&fs.EntityID, &fs.Source); err != nil {
			return nil, fmt.Errorf("failed to scan fact source: %w", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// FactHit is a search match on a fact with its entity name resolved.
type FactHit struct {
	Fact
	EntityName string
}

// SearchCurrentFacts returns currently-valid facts whose value or attribute
// contains the term (case-insensitive), ordered by entity name.
func (s queries) SearchCurrentFacts(ctx context.Context, term string) ([]*FactHit, error) {
	pattern := likePattern(term)
	rows, err := s.q.QueryContext(ctx, `
		SELECT f.id, f.entity_id, f.attribute, f.value, COALESCE(f.source, ''),
		       f.valid_from, f.valid_to, f.superseded_by, f.created_at, e.name
		FROM facts f JOIN entities e ON f.entity_id = e.id
		WHERE (LOWER(f.value) LIKE LOWER(?) OR LOWER(f.attribute) LIKE LOWER(?))
		AND f.valid_to IS NULL
		ORDER BY e.name`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search facts: %w", err)
	}
	defer rows.Close()

	var out []*FactHit
	for rows.Next() {
		var h FactHit
		if err := rows.Scan(&h.ID, &h.EntityID, &h.Attribute, &h.Value, &h.Source,
			&h.ValidFrom, &h.ValidTo, &h.SupersededBy, &h.CreatedAt, &h.EntityName); err != nil {
			return nil, fmt.Errorf("failed to scan fact hit: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

const selectFact = "SELECT id, entity_id, attribute, value, COALESCE(source, ''), valid_from, valid_to, superseded_by, created_at FROM facts"

func scanFact(row rowScanner) (*Fact, error) {
	var f Fact
	if err := row.Scan(&f.ID, &f.EntityID, &f.Attribute, &f.Value, &f.Source,
		&f.ValidFrom, &f.ValidTo, &f.SupersededBy, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFacts(rows *sql.Rows) ([]*Fact, error) {
	var out []*Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
