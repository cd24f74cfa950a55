// Package merge detects duplicate entities and consolidates them onto a
// single canonical identifier, preserving fact and relation history.
package merge

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/kkaufmann/knowledge-base/pkg/metrics"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// AliasPair is a manually-confirmed semantic duplicate (e.g. a known
// abbreviation) merged regardless of name normalization.
type AliasPair struct {
	Canonical string
	Duplicate string
}

// Pair schedules one duplicate entity for merging into a primary.
type Pair struct {
	PrimaryID     string
	PrimaryName   string
	DuplicateID   string
	DuplicateName string
}

// Merger finds and merges duplicate entities.
type Merger struct {
	store   *store.Store
	aliases []AliasPair
	log     *slog.Logger
	metrics metrics.Collector
}

// New creates a Merger. Aliases, logger, and collector may be nil/empty.
func New(st *store.Store, aliases []AliasPair, logger *slog.Logger, collector metrics.Collector) *Merger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Merger{store: st, aliases: aliases, log: logger, metrics: collector}
}

// normalizeName prepares an entity name for duplicate detection: lowercase,
// separators and dots to spaces, whitespace collapsed.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(n)
	return strings.Join(strings.Fields(n), " ")
}

// FindDuplicates groups entities sharing a normalized name and ranks each
// group by (current fact count desc, punctuation-free name, name) to pick the
// primary; every other member becomes a scheduled duplicate. Alias pairs are
// appended unless the automatic grouping already covers them.
func (m *Merger) FindDuplicates(ctx context.Context) ([]Pair, error) {
	entities, err := m.store.ListEntities(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entity    *store.Entity
		factCount int
		readable  bool
	}

	groups := make(map[string][]*candidate)
	var order []string
	for _, e := range entities {
		n := normalizeName(e.Name)
		if _, seen := groups[n]; !seen {
			order = append(order, n)
		}
		groups[n] = append(groups[n], &candidate{entity: e})
	}
	sort.Strings(order)

	var pairs []Pair
	for _, norm := range order {
		group := groups[norm]
		if len(group) < 2 {
			continue
		}

		for _, c := range group {
			c.factCount, err = m.store.CurrentFactCount(ctx, c.entity.ID)
			if err != nil {
				return nil, err
			}
			c.readable = !strings.ContainsAny(c.entity.Name, "-_")
		}

		sort.Slice(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.factCount != b.factCount {
				return a.factCount > b.factCount
			}
			if a.readable != b.readable {
				return a.readable
			}
			return a.entity.Name > b.entity.Name
		})

		primary := group[0].entity
		for _, c := range group[1:] {
			pairs = append(pairs, Pair{
				PrimaryID:     primary.ID,
				PrimaryName:   primary.Name,
				DuplicateID:   c.entity.ID,
				DuplicateName: c.entity.Name,
			})
		}
	}

	scheduled := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		scheduled[[2]string{p.PrimaryID, p.DuplicateID}] = true
	}

	for _, alias := range m.aliases {
		canon, err := m.store.FindEntityByName(ctx, alias.Canonical)
		if err != nil {
			return nil, err
		}
		dupe, err := m.store.FindEntityByName(ctx, alias.Duplicate)
		if err != nil {
			return nil, err
		}
		if canon == nil || dupe == nil || canon.ID == dupe.ID {
			continue
		}
		if scheduled[[2]string{canon.ID, dupe.ID}] {
			continue
		}
		pairs = append(pairs, Pair{
			PrimaryID:     canon.ID,
			PrimaryName:   canon.Name,
			DuplicateID:   dupe.ID,
			DuplicateName: dupe.Name,
		})
	}

	return pairs, nil
}
