// Package kb wires the knowledge base together: storage, write ledger,
// domain classifier, entity merger, and query surface behind one handle.
package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kkaufmann/knowledge-base/pkg/domains"
	"github.com/kkaufmann/knowledge-base/pkg/ledger"
	"github.com/kkaufmann/knowledge-base/pkg/merge"
	"github.com/kkaufmann/knowledge-base/pkg/metrics"
	"github.com/kkaufmann/knowledge-base/pkg/query"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Config holds construction options. Zero values get sensible defaults.
type Config struct {
	// DBPath is the SQLite database file. Defaults to
	// ~/.claude/knowledge/knowledge.db; use ":memory:" for tests.
	DBPath string
	// RulesPath is an optional YAML file of domain classification rules.
	// Ignored when Rules is set.
	RulesPath string
	// Rules overrides RulesPath with an in-process rule list.
	Rules []domains.Rule
	// Aliases are manually-confirmed duplicate entity names for reconciliation.
	Aliases []merge.AliasPair
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics defaults to a no-op collector.
	Metrics metrics.Collector
}

// KB is an open knowledge base.
type KB struct {
	Store      *store.Store
	Ledger     *ledger.Ledger
	Classifier *domains.Classifier
	Merger     *merge.Merger
	Query      *query.Service

	log *slog.Logger
}

// DefaultDBPath returns the conventional database location under the user's
// home directory.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "knowledge", "knowledge.db"), nil
}

// New opens (creating if needed) the knowledge base described by cfg.
func New(cfg Config) (*KB, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopCollector()
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	rules := cfg.Rules
	if rules == nil {
		if cfg.RulesPath != "" {
			var err error
			rules, err = domains.LoadRules(cfg.RulesPath)
			if err != nil {
				return nil, err
			}
		} else {
			rules = domains.DefaultRules()
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	k := &KB{
		Store:      st,
		Ledger:     ledger.New(st, cfg.Logger, cfg.Metrics),
		Classifier: domains.NewClassifier(st, rules, cfg.Logger, cfg.Metrics),
		Merger:     merge.New(st, cfg.Aliases, cfg.Logger, cfg.Metrics),
		Query:      query.New(st, cfg.Logger, cfg.Metrics),
		log:        cfg.Logger,
	}

	k.log.Debug("knowledge base opened", "path", cfg.DBPath, "rules", len(rules))
	return k, nil
}

// Close releases the underlying database.
func (k *KB) Close() error {
	return k.Store.Close()
}
