package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the SQLite-backed knowledge base store. It is the sole writer of
// the five logical tables (entities, facts, relations, decisions,
// entity_domains). Concurrent readers are safe; writers must be serialized by
// the caller. Multi-step writes go through WithTx.
type Store struct {
	queries
	db *sql.DB
}

// Tx is a transaction-scoped view of the store. All row operations are
// available on both Store (auto-commit) and Tx (transactional).
type Tx struct {
	queries
	tx *sql.Tx
}

// Open opens (or creates) the knowledge base at dbPath. The path can be a
// file path or ":memory:" for an in-memory database. Creates tables and
// indexes if they don't exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single pooled connection: writers serialize on it, session pragmas
	// apply to every statement, and ":memory:" databases stay one database
	// instead of one per pool connection.
	db.SetMaxOpenConns(1)

	// A bounded wait on the write lock, after which operations fail rather
	// than hang.
	if _, err := db.Exec("PRAGMA busy_timeout = 30000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{queries: queries{q: db}, db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE,
		type TEXT NOT NULL DEFAULT 'concept',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS facts (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		attribute TEXT NOT NULL,
		value TEXT NOT NULL,
		source TEXT,
		valid_from TEXT NOT NULL,
		valid_to TEXT,
		superseded_by TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_facts_entity_attr ON facts(entity_id, attribute);
	CREATE INDEX IF NOT EXISTS idx_facts_valid_to ON facts(valid_to);

	CREATE TABLE IF NOT EXISTS relations (
		id TEXT PRIMARY KEY,
		from_entity_id TEXT NOT NULL,
		relation_type TEXT NOT NULL,
		to_entity_id TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		valid_to TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_relations_from ON relations(from_entity_id);
	CREATE INDEX IF NOT EXISTS idx_relations_to ON relations(to_entity_id);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		rationale TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		context TEXT,
		decided_at TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entity_domains (
		entity_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		confidence REAL NOT NULL,
		source TEXT,
		PRIMARY KEY (entity_id, domain)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx runs fn inside a single transaction. Either every write in fn lands
// or none do; a crash mid-operation never leaves a supersession or merge
// half-applied.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{queries: queries{q: tx}, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the row operations shared by Store and Tx.
type queries struct {
	q queryable
}

// NewID generates a short unique identifier (uuid4 truncated to 8 chars, the
// store's historical id format).
func NewID() string {
	return uuid.New().String()[:8]
}

// NowUTC returns the current UTC time truncated to whole seconds.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Today returns the current UTC calendar date in YYYY-MM-DD form, the format
// used for fact and relation validity bounds.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// Counts returns per-table row counts. Fact and relation counts include only
// currently-valid rows.
func (s queries) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for name, query := range map[string]string{
		"entities":       "SELECT COUNT(*) FROM entities",
		"facts":          "SELECT COUNT(*) FROM facts WHERE valid_to IS NULL",
		"relations":      "SELECT COUNT(*) FROM relations WHERE valid_to IS NULL",
		"decisions":      "SELECT COUNT(*) FROM decisions",
		"entity_domains": "SELECT COUNT(*) FROM entity_domains",
	} {
		var n int64
		if err := s.q.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// likePattern wraps a search term for case-insensitive substring matching.
func likePattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}
