package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertRelation adds a new relation edge. Generates ID and CreatedAt when
// not provided.
func (s queries) InsertRelation(ctx context.Context, r *Relation) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = NowUTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO relations (id, from_entity_id, relation_type, to_entity_id, valid_from, valid_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FromEntityID, r.RelationType, r.ToEntityID, r.ValidFrom, r.ValidTo, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert relation: %w", err)
	}
	return nil
}

// CurrentRelation returns the currently-valid edge for the exact
// (from, type, to) triple, or (nil, nil) if none exists.
func (s queries) CurrentRelation(ctx context.Context, fromID, relationType, toID string) (*Relation, error) {
	row := s.q.QueryRowContext(ctx,
		selectRelation+` WHERE from_entity_id = ? AND relation_type = ? AND to_entity_id = ? AND valid_to IS NULL`,
		fromID, relationType, toID)
	r, err := scanRelation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current relation: %w", err)
	}
	return r, nil
}

// CloseRelations ends every currently-valid edge matching the exact triple.
// Returns the number of edges closed (zero is a valid no-op).
func (s queries) CloseRelations(ctx context.Context, fromID, relationType, toID, validTo string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE relations SET valid_to = ?
		 WHERE from_entity_id = ? AND relation_type = ? AND to_entity_id = ? AND valid_to IS NULL`,
		validTo, fromID, relationType, toID)
	if err != nil {
		return 0, fmt.Errorf("failed to close relations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// RelationsByEntity returns an entity's relations in both directions with the
// opposite endpoint's name resolved. With includeClosed, ended edges are
// included, most recent first per relation type.
func (s queries) RelationsByEntity(ctx context.Context, entityID string, includeClosed bool) ([]*EntityRelation, error) {
	validFilter := " AND r.valid_to IS NULL"
	order := " ORDER BY r.relation_type"
	if includeClosed {
		validFilter = ""
		order = " ORDER BY r.relation_type, r.valid_from DESC"
	}

	var out []*EntityRelation

	outgoing, err := s.q.QueryContext(ctx,
		`SELECT r.id, r.from_entity_id, r.relation_type, r.to_entity_id, r.valid_from, r.valid_to, r.created_at, e.name
		 FROM relations r JOIN entities e ON r.to_entity_id = e.id
		 WHERE r.from_entity_id = ?`+validFilter+order, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing relations: %w", err)
	}
	out, err = appendEntityRelations(out, outgoing, true)
	if err != nil {
		return nil, err
	}

	incoming, err := s.q.QueryContext(ctx,
		`SELECT r.id, r.from_entity_id, r.relation_type, r.to_entity_id, r.valid_from, r.valid_to, r.created_at, e.name
		 FROM relations r JOIN entities e ON r.from_entity_id = e.id
		 WHERE r.to_entity_id = ?`+validFilter+order, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming relations: %w", err)
	}
	return appendEntityRelations(out, incoming, false)
}

// RelationIDsByEndpoint returns the ids of every relation where the entity
// appears as source or target, across all validity intervals.
func (s queries) RelationIDsByEndpoint(ctx context.Context, entityID string) (from []string, to []string, err error) {
	collect := func(query string) ([]string, error) {
		rows, err := s.q.QueryContext(ctx, query, entityID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	}

	from, err = collect("SELECT id FROM relations WHERE from_entity_id = ?")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list relations by source: %w", err)
	}
	to, err = collect("SELECT id FROM relations WHERE to_entity_id = ?")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list relations by target: %w", err)
	}
	return from, to, nil
}

// RepointRelation updates one endpoint of a relation, preserving relation
// type and validity interval. Used by entity merges.
func (s queries) RepointRelation(ctx context.Context, relationID, entityID string, source bool) error {
	column := "to_entity_id"
	if source {
		column = "from_entity_id"
	}
	_, err := s.q.ExecContext(ctx,
		"UPDATE relations SET "+column+" = ? WHERE id = ?", entityID, relationID)
	if err != nil {
		return fmt.Errorf("failed to repoint relation: %w", err)
	}
	return nil
}

const selectRelation = "SELECT id, from_entity_id, relation_type, to_entity_id, valid_from, valid_to, created_at FROM relations"

func scanRelation(row rowScanner) (*Relation, error) {
	var r Relation
	if err := row.Scan(&r.ID, &r.FromEntityID, &r.RelationType, &r.ToEntityID,
		&r.ValidFrom, &r.ValidTo, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func appendEntityRelations(out []*EntityRelation, rows *sql.Rows, outgoing bool) ([]*EntityRelation, error) {
	defer rows.Close()
	for rows.Next() {
		var er EntityRelation
		if err := rows.Scan(&er.ID, &er.FromEntityID, &er.RelationType, &er.ToEntityID,
			&er.ValidFrom, &er.ValidTo, &er.CreatedAt, &er.OtherName); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		er.Outgoing = outgoing
		out = append(out, &er)
	}
	return out, rows.Err()
}
