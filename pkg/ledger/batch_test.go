package ledger

import (
	"context"
	"encoding/json"
	"testing"
)

func TestIngestBatch(t *testing.T) {
	l, s := setupTestLedger(t)
	ctx := context.Background()

	batch := Batch{
		Entities: []EntityRecord{
			{Name: "Ada Lovelace", Type: "person"},
			{Name: "Analytical Engine", Type: "project"},
		},
		Facts: []FactRecord{
			{EntityName: "Ada Lovelace", Attribute: "role", Value: "mathematician"},
			// Implicitly creates its entity: not in the entity list.
			{EntityName: "Charles Babbage", Attribute: "role", Value: "inventor"},
		},
		Relations: []RelationRecord{
			{From: "Ada Lovelace", Relation: "works_on", To: "Analytical Engine"},
			{From: "Ada Lovelace", Relation: "knows", To: "Unknown Stranger"},
		},
		Decisions: []DecisionRecord{
			{Title: "Publish notes", Rationale: "the translation alone is not enough"},
		},
	}

	stats, err := l.IngestBatch(ctx, batch, "letters/1843.md", "2026-05-01")
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}

	if stats.EntitiesCreated != 3 {
		t.Errorf("Expected 3 entities created, got %d", stats.EntitiesCreated)
	}
	if stats.FactsCreated != 2 {
		t.Errorf("Expected 2 facts created, got %d", stats.FactsCreated)
	}
	if stats.RelationsCreated != 1 {
		t.Errorf("Expected 1 relation created, got %d", stats.RelationsCreated)
	}
	if stats.RelationsDropped != 1 {
		t.Errorf("Expected 1 relation dropped, got %d", stats.RelationsDropped)
	}
	if stats.DecisionsLogged != 1 {
		t.Errorf("Expected 1 decision logged, got %d", stats.DecisionsLogged)
	}

	// The batch source labels every fact.
	ada, _ := s.FindEntityByName(ctx, "Ada Lovelace")
	facts, err := s.FactsByEntity(ctx, ada.ID, false)
	if err != nil {
		t.Fatalf("FactsByEntity failed: %v", err)
	}
	if len(facts) != 1 || facts[0].Source != "letters/1843.md" {
		t.Errorf("Unexpected facts: %+v", facts)
	}
	if facts[0].ValidFrom != "2026-05-01" {
		t.Errorf("Expected batch effective date, got %s", facts[0].ValidFrom)
	}

	// Re-ingesting the identical batch only resolves and skips.
	stats, err = l.IngestBatch(ctx, batch, "letters/1843.md", "2026-05-01")
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if stats.EntitiesCreated != 0 || stats.FactsCreated != 0 || stats.RelationsCreated != 0 {
		t.Errorf("Expected nothing created on re-ingest, got %+v", stats)
	}
	if stats.FactsSkipped != 2 {
		t.Errorf("Expected 2 facts skipped, got %d", stats.FactsSkipped)
	}
	if stats.RelationsSkipped != 1 {
		t.Errorf("Expected 1 relation skipped, got %d", stats.RelationsSkipped)
	}
}

func TestIngestBatch_RejectsMalformedRecords(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	batch := Batch{
		Entities: []EntityRecord{{Name: ""}},
		Facts: []FactRecord{
			{EntityName: "Ada", Attribute: "", Value: "x"},
			{EntityName: "Ada", Attribute: "role", Value: "mathematician"},
		},
		Relations: []RelationRecord{{From: "Ada", Relation: "", To: "Babbage"}},
		Decisions: []DecisionRecord{{Title: ""}},
	}

	stats, err := l.IngestBatch(ctx, batch, "", "")
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if stats.Rejected != 4 {
		t.Errorf("Expected 4 rejected records, got %d", stats.Rejected)
	}
	// The well-formed fact still landed.
	if stats.FactsCreated != 1 {
		t.Errorf("Expected 1 fact created, got %d", stats.FactsCreated)
	}
}

func TestBatch_JSONShape(t *testing.T) {
	raw := `{
		"entities": [{"name": "gognee", "type": "tool"}],
		"facts": [{"entity_name": "gognee", "attribute": "language", "value": "go", "supersedes": "rust"}],
		"relations": [{"from": "gognee", "relation": "uses", "to": "sqlite", "ended": false}],
		"decisions": [{"title": "keep it simple", "rationale": "fewer moving parts"}]
	}`

	var b Batch
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(b.Entities) != 1 || b.Entities[0].Name != "gognee" {
		t.Errorf("Unexpected entities: %+v", b.Entities)
	}
	if b.Facts[0].Supersedes != "rust" {
		t.Errorf("Expected supersedes hint preserved, got %q", b.Facts[0].Supersedes)
	}
	if b.Relations[0].Relation != "uses" {
		t.Errorf("Unexpected relation: %+v", b.Relations[0])
	}
}
