package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/kkaufmann/knowledge-base/pkg/store"
)

func setupTestLedger(t *testing.T) (*Ledger, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, nil, nil), s
}

func TestAssertFact_CreatesEntityImplicitly(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	outcome, err := l.AssertFact(ctx, FactAssertion{
		Entity:    "Ada Lovelace",
		Attribute: "role",
		Value:     "mathematician",
	})
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("Expected created, got %s", outcome)
	}

	e, err := s.FindEntityByName(ctx, "ada lovelace")
	if err != nil {
		t.Fatalf("FindEntityByName failed: %v", err)
	}
	if e == nil {
		t.Fatal("Expected entity created by fact assertion")
	}
	if e.Type != store.EntityConcept {
		t.Errorf("Expected default type concept, got %s", e.Type)
	}
}

func TestAssertFact_Idempotent(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	a := FactAssertion{Entity: "Ada", Attribute: "role", Value: "Mathematician"}
	if _, err := l.AssertFact(ctx, a); err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}

	// Same value modulo case and whitespace: no new row.
	a.Value = "  mathematician "
	outcome, err := l.AssertFact(ctx, a)
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("Expected skipped, got %s", outcome)
	}

	e, _ := s.FindEntityByName(ctx, "Ada")
	facts, err := s.FactsByEntity(ctx, e.ID, true)
	if err != nil {
		t.Fatalf("FactsByEntity failed: %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("Expected 1 fact after duplicate assert, got %d", len(facts))
	}
	if facts[0].Value != "Mathematician" {
		t.Errorf("Expected original value kept, got %q", facts[0].Value)
	}
}

func TestAssertFact_Supersedes(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	if _, err := l.AssertFact(ctx, FactAssertion{
		Entity: "Ada", Attribute: "employer", Value: "Babbage & Co", EffectiveDate: "2026-01-01",
	}); err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}

	outcome, err := l.AssertFact(ctx, FactAssertion{
		Entity: "Ada", Attribute: "employer", Value: "Royal Society", EffectiveDate: "2026-06-01",
	})
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeSuperseded {
		t.Errorf("Expected superseded, got %s", outcome)
	}

	e, _ := s.FindEntityByName(ctx, "Ada")
	facts, err := s.FactsByEntity(ctx, e.ID, true)
	if err != nil {
		t.Fatalf("FactsByEntity failed: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("Expected 2 facts, got %d", len(facts))
	}

	var current, closed *store.Fact
	for _, f := range facts {
		if f.Current() {
			current = f
		} else {
			closed = f
		}
	}
	if current == nil || closed == nil {
		t.Fatalf("Expected one current and one closed fact, got %+v", facts)
	}
	if current.Value != "Royal Society" {
		t.Errorf("Expected new value current, got %q", current.Value)
	}
	if current.ValidFrom != "2026-06-01" {
		t.Errorf("Expected valid_from 2026-06-01, got %s", current.ValidFrom)
	}
	if closed.ValidTo == nil || *closed.ValidTo != "2026-06-01" {
		t.Errorf("Expected old fact closed at 2026-06-01, got %v", closed.ValidTo)
	}
	if closed.SupersededBy == nil || *closed.SupersededBy != current.ID {
		t.Errorf("Expected superseded_by to point at new fact, got %v", closed.SupersededBy)
	}

	// At most one current fact per (entity, attribute).
	cur, err := s.CurrentFact(ctx, e.ID, "employer")
	if err != nil {
		t.Fatalf("CurrentFact failed: %v", err)
	}
	if cur.ID != current.ID {
		t.Errorf("CurrentFact returned %s, want %s", cur.ID, current.ID)
	}
}

func TestAssertFact_ContainmentKeepsLonger(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	// Detailed value first; the terser rephrasing must not replace it.
	if _, err := l.AssertFact(ctx, FactAssertion{
		Entity: "Kenji", Attribute: "dinner", Value: "had about 3 bites of dinner",
	}); err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	outcome, err := l.AssertFact(ctx, FactAssertion{
		Entity: "Kenji", Attribute: "dinner", Value: "3 bites",
	})
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeSkippedLessDetail {
		t.Errorf("Expected skipped_less_detail, got %s", outcome)
	}

	// The other direction: a longer containing value supersedes.
	outcome, err = l.AssertFact(ctx, FactAssertion{
		Entity: "Kenji", Attribute: "lunch", Value: "3 bites",
	})
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("Expected created, got %s", outcome)
	}
	outcome, err = l.AssertFact(ctx, FactAssertion{
		Entity: "Kenji", Attribute: "lunch", Value: "3 bites of dinner leftovers",
	})
	if err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}
	if outcome != OutcomeSuperseded {
		t.Errorf("Expected superseded, got %s", outcome)
	}
}

func TestAssertFact_SupersessionChain(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	values := []string{"draft", "review", "shipped"}
	dates := []string{"2026-01-01", "2026-02-01", "2026-03-01"}
	for i, v := range values {
		if _, err := l.AssertFact(ctx, FactAssertion{
			Entity: "launch", Attribute: "status", Value: v, EffectiveDate: dates[i],
		}); err != nil {
			t.Fatalf("AssertFact(%s) failed: %v", v, err)
		}
	}

	e, _ := s.FindEntityByName(ctx, "launch")
	facts, err := s.FactsByEntity(ctx, e.ID, true)
	if err != nil {
		t.Fatalf("FactsByEntity failed: %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("Expected 3 facts, got %d", len(facts))
	}

	currentCount := 0
	byValue := make(map[string]*store.Fact)
	for _, f := range facts {
		byValue[f.Value] = f
		if f.Current() {
			currentCount++
		}
	}
	if currentCount != 1 {
		t.Errorf("Expected exactly 1 current fact, got %d", currentCount)
	}
	if !byValue["shipped"].Current() {
		t.Error("Expected latest value to be current")
	}
	if byValue["draft"].SupersededBy == nil || *byValue["draft"].SupersededBy != byValue["review"].ID {
		t.Error("Expected draft to be superseded by review")
	}
	if byValue["review"].SupersededBy == nil || *byValue["review"].SupersededBy != byValue["shipped"].ID {
		t.Error("Expected review to be superseded by shipped")
	}
}

func TestAssertFact_Rejected(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	cases := []FactAssertion{
		{Entity: "", Attribute: "a", Value: "v"},
		{Entity: "e", Attribute: "", Value: "v"},
		{Entity: "e", Attribute: "a", Value: "  "},
	}
	for _, a := range cases {
		outcome, err := l.AssertFact(ctx, a)
		if err == nil {
			t.Errorf("Expected error for %+v", a)
		}
		if !errors.Is(err, store.ErrInvalidRecord) {
			t.Errorf("Expected ErrInvalidRecord, got %v", err)
		}
		if outcome != OutcomeRejected {
			t.Errorf("Expected rejected, got %s", outcome)
		}
	}
}

func TestAssertFact_TypeHintOnlyOnCreate(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	if _, err := l.AssertFact(ctx, FactAssertion{
		Entity: "gognee", EntityType: "tool", Attribute: "language", Value: "go",
	}); err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}

	// A later conflicting hint must not rewrite the stored type.
	if _, err := l.AssertFact(ctx, FactAssertion{
		Entity: "gognee", EntityType: "person", Attribute: "stars", Value: "many",
	}); err != nil {
		t.Fatalf("AssertFact failed: %v", err)
	}

	e, _ := s.FindEntityByName(ctx, "gognee")
	if e.Type != store.EntityTool {
		t.Errorf("Expected type tool to survive, got %s", e.Type)
	}
}

func TestResolve(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	id1, err := l.Resolve(ctx, "Grace Hopper", "person", "Navy")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Same name resolves to the same ID regardless of case.
	id2, err := l.Resolve(ctx, "grace hopper", "company", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Expected stable ID, got %s and %s", id1, id2)
	}

	domains, err := s.DomainsByEntity(ctx, id1)
	if err != nil {
		t.Fatalf("DomainsByEntity failed: %v", err)
	}
	if len(domains) != 1 || domains[0].Domain != "Navy" || domains[0].Confidence != 1.0 {
		t.Errorf("Unexpected initial domain assignment: %+v", domains)
	}
}
