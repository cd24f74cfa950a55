package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

// DecisionEntry is a request to log a decision. Pure insert: no dedup, no
// supersession.
type DecisionEntry struct {
	Title         string
	Rationale     string
	Context       string
	EffectiveDate string // YYYY-MM-DD; defaults to today (UTC)
}

// LogDecision appends a decision to the log. Always succeeds for a valid entry.
func (l *Ledger) LogDecision(ctx context.Context, d DecisionEntry) error {
	start := time.Now()

	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: decision title is required", store.ErrInvalidRecord)
	}

	err := l.store.InsertDecision(ctx, &store.Decision{
		Title:     d.Title,
		Rationale: d.Rationale,
		Context:   d.Context,
		DecidedAt: d.EffectiveDate,
	})
	if err != nil {
		l.metrics.RecordError(ctx, "log_decision", store.ClassifyError(err))
		return err
	}

	l.log.Debug("decision logged", "title", d.Title)
	l.metrics.RecordOperation(ctx, "log_decision", "success", time.Since(start).Milliseconds())
	return nil
}
