// Package query is the read-only surface over the knowledge base: entity
// lookups, free-text search, and roll-up listings.
package query

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/metrics"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Service answers queries. It never writes.
type Service struct {
	store   *store.Store
	log     *slog.Logger
	metrics metrics.Collector
}

// New creates a query service. Logger and collector may be nil.
func New(st *store.Store, logger *slog.Logger, collector metrics.Collector) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Service{store: st, log: logger, metrics: collector}
}

// EntityView is everything known about one entity: its facts, the relations
// touching it from either side, and its domain assignments.
type EntityView struct {
	Entity    *store.Entity
	Facts     []*store.Fact
	Relations []*store.EntityRelation
	Domains   []*store.DomainAssignment
}

// Lookup resolves a name pattern (substring, case-insensitive) to full entity
// views. With includeHistory, superseded facts and ended relations are
// included; otherwise only current rows are returned.
func (s *Service) Lookup(ctx context.Context, namePattern string, includeHistory bool) ([]*EntityView, error) {
	start := time.Now()

	entities, err := s.store.FindEntitiesByPattern(ctx, namePattern)
	if err != nil {
		s.metrics.RecordError(ctx, "lookup", store.ClassifyError(err))
		return nil, err
	}

	views := make([]*EntityView, 0, len(entities))
	for _, e := range entities {
		v := &EntityView{Entity: e}
		v.Facts, err = s.store.FactsByEntity(ctx, e.ID, includeHistory)
		if err != nil {
			s.metrics.RecordError(ctx, "lookup", store.ClassifyError(err))
			return nil, err
		}
		v.Relations, err = s.store.RelationsByEntity(ctx, e.ID, includeHistory)
		if err != nil {
			s.metrics.RecordError(ctx, "lookup", store.ClassifyError(err))
			return nil, err
		}
		v.Domains, err = s.store.DomainsByEntity(ctx, e.ID)
		if err != nil {
			s.metrics.RecordError(ctx, "lookup", store.ClassifyError(err))
			return nil, err
		}
		views = append(views, v)
	}

	s.metrics.RecordOperation(ctx, "lookup", "success", time.Since(start).Milliseconds())
	return views, nil
}

// SearchResult groups free-text hits across record kinds.
type SearchResult struct {
	Facts     []*store.FactHit
	Decisions []*store.Decision
	Entities  []*store.Entity
}

// Search runs a case-insensitive substring search across current fact values
// and attributes, decision titles and rationales, and entity names.
func (s *Service) Search(ctx context.Context, term string) (*SearchResult, error) {
	start := time.Now()

	res := &SearchResult{}
	var err error
	res.Facts, err = s.store.SearchCurrentFacts(ctx, term)
	if err != nil {
		s.metrics.RecordError(ctx, "search", store.ClassifyError(err))
		return nil, err
	}
	res.Decisions, err = s.store.SearchDecisions(ctx, term)
	if err != nil {
		s.metrics.RecordError(ctx, "search", store.ClassifyError(err))
		return nil, err
	}
	res.Entities, err = s.store.FindEntitiesByPattern(ctx, term)
	if err != nil {
		s.metrics.RecordError(ctx, "search", store.ClassifyError(err))
		return nil, err
	}

	s.metrics.RecordOperation(ctx, "search", "success", time.Since(start).Milliseconds())
	return res, nil
}

// Decisions lists the decision log newest-first. By default only active
// decisions are returned; includeAll adds superseded ones.
func (s *Service) Decisions(ctx context.Context, includeAll bool) ([]*store.Decision, error) {
	return s.store.ListDecisions(ctx, !includeAll)
}

// Entities lists every entity with its current fact count.
func (s *Service) Entities(ctx context.Context) ([]*store.EntityFactCount, error) {
	return s.store.ListEntitiesWithFactCounts(ctx)
}

// ByDomain lists the entities assigned to a domain, busiest first.
func (s *Service) ByDomain(ctx context.Context, domain string) ([]*store.DomainEntity, error) {
	return s.store.EntitiesByDomain(ctx, domain)
}

// Counts reports row counts per table, for status output and gauges.
func (s *Service) Counts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	for table, n := range counts {
		s.metrics.SetTableCount(ctx, table, n)
	}
	return counts, nil
}
