package merge

import (
	"context"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// MergeStats counts what one merge did (or would do, in dry-run mode).
type MergeStats struct {
	FactsMoved         int
	FactsSkipped       int
	RelationsRepointed int
	DomainsMerged      int
}

func (s *MergeStats) add(o *MergeStats) {
	s.FactsMoved += o.FactsMoved
	s.FactsSkipped += o.FactsSkipped
	s.RelationsRepointed += o.RelationsRepointed
	s.DomainsMerged += o.DomainsMerged
}

// Merge consolidates the duplicate entity of the pair into the primary:
// facts move unless the primary already holds a current fact for the same
// attribute, relations are repointed, domain assignments merge keeping the
// higher confidence, and the duplicate row is deleted. With dryRun the same
// decisions are computed but nothing is written.
func (m *Merger) Merge(ctx context.Context, p Pair, dryRun bool) (*MergeStats, error) {
	stats := &MergeStats{}
	err := m.store.WithTx(ctx, func(tx *store.Tx) error {
		facts, err := tx.FactsByEntity(ctx, p.DuplicateID, true)
		if err != nil {
			return err
		}
		for _, f := range facts {
			if f.Current() {
				existing, err := tx.CurrentFact(ctx, p.PrimaryID, f.Attribute)
				if err != nil {
					return err
				}
				if existing != nil {
					// The primary's current value wins; the duplicate's stays
					// behind and dies with it.
					stats.FactsSkipped++
					continue
				}
			}
			if !dryRun {
				if err := tx.ReassignFact(ctx, f.ID, p.PrimaryID); err != nil {
					return err
				}
			}
			stats.FactsMoved++
		}

		fromIDs, toIDs, err := tx.RelationIDsByEndpoint(ctx, p.DuplicateID)
		if err != nil {
			return err
		}
		for _, id := range fromIDs {
			if !dryRun {
				if err := tx.RepointRelation(ctx, id, p.PrimaryID, true); err != nil {
					return err
				}
			}
			stats.RelationsRepointed++
		}
		for _, id := range toIDs {
			if !dryRun {
				if err := tx.RepointRelation(ctx, id, p.PrimaryID, false); err != nil {
					return err
				}
			}
			stats.RelationsRepointed++
		}

		dupDomains, err := tx.DomainsByEntity(ctx, p.DuplicateID)
		if err != nil {
			return err
		}
		if len(dupDomains) > 0 {
			primaryDomains, err := tx.DomainsByEntity(ctx, p.PrimaryID)
			if err != nil {
				return err
			}
			existing := make(map[string]float64, len(primaryDomains))
			for _, d := range primaryDomains {
				existing[d.Domain] = d.Confidence
			}
			for _, d := range dupDomains {
				conf, ok := existing[d.Domain]
				if ok && conf >= d.Confidence {
					continue
				}
				if !dryRun {
					a := &store.DomainAssignment{
						EntityID:   p.PrimaryID,
						Domain:     d.Domain,
						Confidence: d.Confidence,
						Source:     "reconcile",
					}
					if err := tx.UpsertDomain(ctx, a); err != nil {
						return err
					}
				}
				stats.DomainsMerged++
			}
		}

		if !dryRun {
			if err := tx.DeleteDomainsForEntity(ctx, p.DuplicateID); err != nil {
				return err
			}
			if err := tx.DeleteEntity(ctx, p.DuplicateID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.metrics.RecordError(ctx, "merge", store.ClassifyError(err))
		return nil, err
	}

	m.log.Info("entities merged",
		"primary", p.PrimaryName,
		"duplicate", p.DuplicateName,
		"facts_moved", stats.FactsMoved,
		"facts_skipped", stats.FactsSkipped,
		"relations_repointed", stats.RelationsRepointed,
		"dry_run", dryRun)
	return stats, nil
}

// RunOptions controls a full reconciliation pass.
type RunOptions struct {
	DryRun bool
	// Prune deletes entities left with no facts and no relations after
	// merging.
	Prune bool
}

// RunStats reports a full reconciliation pass.
type RunStats struct {
	Merged  []Pair
	Skipped []Pair
	Totals  MergeStats
	Pruned  []*store.Entity
}

// Run finds all duplicate pairs and merges them one by one. An entity merged
// away earlier in the pass is never reused as a primary or duplicate later in
// the same pass; such pairs are skipped and reported for the next run.
func (m *Merger) Run(ctx context.Context, opts RunOptions) (*RunStats, error) {
	start := time.Now()

	pairs, err := m.FindDuplicates(ctx)
	if err != nil {
		m.metrics.RecordError(ctx, "reconcile", store.ClassifyError(err))
		return nil, err
	}

	stats := &RunStats{}
	merged := make(map[string]bool)
	for _, p := range pairs {
		if merged[p.PrimaryID] || merged[p.DuplicateID] {
			stats.Skipped = append(stats.Skipped, p)
			continue
		}
		ms, err := m.Merge(ctx, p, opts.DryRun)
		if err != nil {
			m.metrics.RecordError(ctx, "reconcile", store.ClassifyError(err))
			return nil, err
		}
		merged[p.DuplicateID] = true
		stats.Merged = append(stats.Merged, p)
		stats.Totals.add(ms)
	}

	if opts.Prune {
		stats.Pruned, err = m.prune(ctx, opts.DryRun)
		if err != nil {
			m.metrics.RecordError(ctx, "reconcile", store.ClassifyError(err))
			return nil, err
		}
	}

	m.log.Info("reconciliation complete",
		"pairs", len(pairs),
		"merged", len(stats.Merged),
		"skipped", len(stats.Skipped),
		"pruned", len(stats.Pruned),
		"dry_run", opts.DryRun)
	m.metrics.RecordOperation(ctx, "reconcile", "success", time.Since(start).Milliseconds())
	return stats, nil
}

func (m *Merger) prune(ctx context.Context, dryRun bool) ([]*store.Entity, error) {
	var orphans []*store.Entity
	err := m.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		orphans, err = tx.ListOrphanEntities(ctx)
		if err != nil {
			return err
		}
		if dryRun {
			return nil
		}
		for _, e := range orphans {
			if err := tx.DeleteDomainsForEntity(ctx, e.ID); err != nil {
				return err
			}
			if err := tx.DeleteEntity(ctx, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orphans, nil
}
