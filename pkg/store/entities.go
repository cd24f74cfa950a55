package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertEntity adds a new entity. Generates ID and timestamps when not provided.
func (s queries) InsertEntity(ctx context.Context, e *Entity) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Type == "" {
		e.Type = EntityConcept
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = NowUTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := s.q.ExecContext(ctx,
		"INSERT INTO entities (id, name, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.Name, string(e.Type), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// GetEntity retrieves an entity by ID. Returns (nil, nil) if not found.
func (s queries) GetEntity(ctx context.Context, id string) (*Entity, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT id, name, type, created_at, updated_at FROM entities WHERE id = ?", id)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// FindEntityByName looks up an entity by case-insensitive exact name match.
// Returns (nil, nil) if not found.
func (s queries) FindEntityByName(ctx context.Context, name string) (*Entity, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, type, created_at, updated_at FROM entities
		 WHERE LOWER(name) = LOWER(?) ORDER BY created_at, id LIMIT 1`, name)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entity by name: %w", err)
	}
	return e, nil
}

// FindEntitiesByPattern returns entities whose name contains the term
// (case-insensitive), ordered by name.
func (s queries) FindEntitiesByPattern(ctx context.Context, term string) ([]*Entity, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, type, created_at, updated_at FROM entities
		 WHERE LOWER(name) LIKE LOWER(?) ORDER BY name`, likePattern(term))
	if err != nil {
		return nil, fmt.Errorf("failed to find entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// TouchEntity bumps an entity's updated_at.
func (s queries) TouchEntity(ctx context.Context, id string, at time.Time) error {
	_, err := s.q.ExecContext(ctx, "UPDATE entities SET updated_at = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("failed to touch entity: %w", err)
	}
	return nil
}

// ListEntities returns all entities ordered by type then name.
func (s queries) ListEntities(ctx context.Context) ([]*Entity, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, name, type, created_at, updated_at FROM entities ORDER BY type, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ListEntitiesWithFactCounts returns every entity with its currently-valid
// fact count, ordered by type then name.
func (s queries) ListEntitiesWithFactCounts(ctx context.Context) ([]*EntityFactCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.created_at, e.updated_at, COUNT(f.id)
		FROM entities e
		LEFT JOIN facts f ON e.id = f.entity_id AND f.valid_to IS NULL
		GROUP BY e.id
		ORDER BY e.type, e.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities with fact counts: %w", err)
	}
	defer rows.Close()

	var out []*EntityFactCount
	for rows.Next() {
		var ec EntityFactCount
		var typ string
		if err := rows.Scan(&ec.ID, &ec.Name, &typ, &ec.CreatedAt, &ec.UpdatedAt, &ec.FactCount); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		ec.Type = EntityType(typ)
		out = append(out, &ec)
	}
	return out, rows.Err()
}

// ListFactlessEntities returns entities with zero fact rows, regardless of
// relations. Feeds the classifier's orphan report: a factless entity has no
// provenance to classify from even when edges still reference it.
func (s queries) ListFactlessEntities(ctx context.Context) ([]*Entity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.created_at, e.updated_at FROM entities e
		WHERE NOT EXISTS (SELECT 1 FROM facts f WHERE f.entity_id = e.id)
		ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list factless entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ListOrphanEntities returns entities with zero facts and zero relations,
// candidates for pruning.
func (s queries) ListOrphanEntities(ctx context.Context) ([]*Entity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.created_at, e.updated_at FROM entities e
		WHERE NOT EXISTS (SELECT 1 FROM facts f WHERE f.entity_id = e.id)
		AND NOT EXISTS (SELECT 1 FROM relations r WHERE r.from_entity_id = e.id OR r.to_entity_id = e.id)
		ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// DeleteEntity removes an entity row. Facts and relations are not cascaded;
// callers decide what happens to them (merge re-points, prune checks first).
func (s queries) DeleteEntity(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*Entity, error) {
	var e Entity
	var typ string
	if err := row.Scan(&e.ID, &e.Name, &typ, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Type = EntityType(typ)
	return &e, nil
}

func scanEntities(rows *sql.Rows) ([]*Entity, error) {
	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
