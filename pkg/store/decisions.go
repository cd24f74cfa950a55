package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertDecision appends a decision log entry. Generates ID, status, and
// CreatedAt when not provided. Pure insert: no dedup, no supersession.
func (s queries) InsertDecision(ctx context.Context, d *Decision) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	if d.Status == "" {
		d.Status = DecisionActive
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = NowUTC()
	}
	if d.DecidedAt == "" {
		d.DecidedAt = Today()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO decisions (id, title, rationale, status, context, decided_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Rationale, d.Status, d.Context, d.DecidedAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns decisions newest first. With activeOnly, superseded
// entries are filtered out.
func (s queries) ListDecisions(ctx context.Context, activeOnly bool) ([]*Decision, error) {
	query := selectDecision + " ORDER BY decided_at DESC, created_at DESC"
	if activeOnly {
		query = selectDecision + " WHERE status = 'active' ORDER BY decided_at DESC, created_at DESC"
	}

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// SearchDecisions returns decisions whose title or rationale contains the
// term (case-insensitive), newest first.
func (s queries) SearchDecisions(ctx context.Context, term string) ([]*Decision, error) {
	pattern := likePattern(term)
	rows, err := s.q.QueryContext(ctx,
		selectDecision+` WHERE LOWER(title) LIKE LOWER(?) OR LOWER(rationale) LIKE LOWER(?)
		 ORDER BY decided_at DESC, created_at DESC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search decisions: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

const selectDecision = "SELECT id, title, COALESCE(rationale, ''), status, COALESCE(context, ''), COALESCE(decided_at, ''), created_at FROM decisions"

func scanDecisions(rows *sql.Rows) ([]*Decision, error) {
	var out []*Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Title, &d.Rationale, &d.Status, &d.Context, &d.DecidedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
