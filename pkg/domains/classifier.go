package domains

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/metrics"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// Classifier recomputes domain assignments in bulk from fact provenance.
type Classifier struct {
	store   *store.Store
	rules   []Rule
	log     *slog.Logger
	metrics metrics.Collector
}

// NewClassifier creates a classifier with the given ordered rules. Logger and
// collector may be nil.
func NewClassifier(st *store.Store, rules []Rule, logger *slog.Logger, collector metrics.Collector) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Classifier{store: st, rules: rules, log: logger, metrics: collector}
}

// RecomputeStats reports what a bulk recomputation wrote.
type RecomputeStats struct {
	AssignmentsWritten int
	// DomainCounts is the number of entities assigned to each domain.
	DomainCounts map[string]int
	// Orphans are entities with zero facts, relations notwithstanding; they
	// have no provenance and receive no domain.
	Orphans []*store.Entity
}

// Recompute scans every fact carrying a source label, classifies each source
// against the ordered rules, and writes one assignment per (entity, domain)
// with confidence = matching facts / total sourced facts for that entity.
// Upsert semantics make it safe to re-run at any time.
func (c *Classifier) Recompute(ctx context.Context) (*RecomputeStats, error) {
	start := time.Now()

	stats := &RecomputeStats{DomainCounts: make(map[string]int)}
	err := c.store.WithTx(ctx, func(tx *store.Tx) error {
		sources, err := tx.ListFactSources(ctx)
		if err != nil {
			return err
		}

		// entity -> domain -> matching fact count
		counts := make(map[string]map[string]int)
		for _, fs := range sources {
			domain := Detect(c.rules, fs.Source)
			if counts[fs.EntityID] == nil {
				counts[fs.EntityID] = make(map[string]int)
			}
			counts[fs.EntityID][domain]++
		}

		// Deterministic write order for stable logs and tests.
		entityIDs := make([]string, 0, len(counts))
		for id := range counts {
			entityIDs = append(entityIDs, id)
		}
		sort.Strings(entityIDs)

		for _, entityID := range entityIDs {
			domainCounts := counts[entityID]
			total := 0
			for _, n := range domainCounts {
				total += n
			}

			for domain, n := range domainCounts {
				a := &store.DomainAssignment{
					EntityID:   entityID,
					Domain:     domain,
					Confidence: float64(n) / float64(total),
					Source:     "classifier",
				}
				if err := tx.UpsertDomain(ctx, a); err != nil {
					return err
				}
				stats.AssignmentsWritten++
				stats.DomainCounts[domain]++
			}
		}

		stats.Orphans, err = tx.ListFactlessEntities(ctx)
		return err
	})
	if err != nil {
		c.metrics.RecordError(ctx, "recompute_domains", store.ClassifyError(err))
		c.metrics.RecordOperation(ctx, "recompute_domains", "error", time.Since(start).Milliseconds())
		return nil, err
	}

	c.log.Info("domains recomputed",
		"assignments", stats.AssignmentsWritten,
		"domains", len(stats.DomainCounts),
		"orphans", len(stats.Orphans))
	c.metrics.RecordOperation(ctx, "recompute_domains", "success", time.Since(start).Milliseconds())
	return stats, nil
}
