package domains

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kkaufmann/knowledge-base/pkg/ledger"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

func testRules() []Rule {
	return []Rule{
		{Domain: "KH", Patterns: []string{"kaufmann-health", "kaufmann/health"}},
		{Domain: "Infrastructure", Patterns: []string{"claude-sessions", "knowledge-base"}},
		{Domain: "Family", Patterns: []string{"journal", "family"}},
	}
}

func TestDetect(t *testing.T) {
	rules := testRules()

	cases := []struct {
		source string
		want   string
	}{
		{"projects/kaufmann-health/notes.md", "KH"},
		{"Projects/KAUFMANN-HEALTH/readme", "KH"},
		{"claude-sessions/2026-05-01.md", "Infrastructure"},
		{"journal/may.md", "Family"},
		{"random/file.md", FallbackDomain},
		{"", FallbackDomain},
	}
	for _, c := range cases {
		if got := Detect(rules, c.source); got != c.want {
			t.Errorf("Detect(%q): got %s, want %s", c.source, got, c.want)
		}
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NotEmpty(t, rules)

	if got := Detect(rules, "projects/vss/site.md"); got != "VSS" {
		t.Errorf("Expected VSS, got %s", got)
	}
	if got := Detect(rules, "knowledge-base/schema.sql"); got != "Infrastructure" {
		t.Errorf("Expected Infrastructure, got %s", got)
	}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Domain: "First", Patterns: []string{"shared"}},
		{Domain: "Second", Patterns: []string{"shared"}},
	}
	if got := Detect(rules, "a-shared-path"); got != "First" {
		t.Errorf("Expected first rule to win, got %s", got)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
- domain: KH
  patterns: ["kaufmann-health"]
- domain: Infrastructure
  patterns: ["claude-sessions", "knowledge-base"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, "KH", rules[0].Domain)
	require.Equal(t, []string{"claude-sessions", "knowledge-base"}, rules[1].Patterns)
}

func TestLoadRules_Invalid(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.yaml")
	_, err := LoadRules(missing)
	require.Error(t, err)

	empty := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("- domain: KH\n  patterns: []\n"), 0o644))
	_, err = LoadRules(empty)
	require.Error(t, err)
}

func TestRecompute(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	l := ledger.New(s, nil, nil)

	// Three sourced facts for one entity: two KH, one unmatched.
	seed := []struct{ attr, value, source string }{
		{"status", "active", "projects/kaufmann-health/status.md"},
		{"owner", "konstantin", "kaufmann-health/team.md"},
		{"mood", "good", "misc/scratch.md"},
	}
	for _, f := range seed {
		_, err := l.AssertFact(ctx, ledger.FactAssertion{
			Entity: "Health Portal", Attribute: f.attr, Value: f.value, Source: f.source,
		})
		require.NoError(t, err)
	}

	// An entity with no facts stays unclassified and is reported as an orphan.
	_, err = l.Resolve(ctx, "stale-idea", "concept", "")
	require.NoError(t, err)

	// A factless entity referenced only by a relation is still reported: it
	// has no provenance to classify from.
	_, err = l.Resolve(ctx, "linked-only", "concept", "")
	require.NoError(t, err)
	_, err = l.AssertRelation(ctx, ledger.RelationAssertion{
		From: "Health Portal", RelationType: "links_to", To: "linked-only",
	})
	require.NoError(t, err)

	c := NewClassifier(s, testRules(), nil, nil)
	stats, err := c.Recompute(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, stats.AssignmentsWritten)
	require.Equal(t, 1, stats.DomainCounts["KH"])
	require.Equal(t, 1, stats.DomainCounts[FallbackDomain])
	require.Len(t, stats.Orphans, 2)
	require.Equal(t, "linked-only", stats.Orphans[0].Name)
	require.Equal(t, "stale-idea", stats.Orphans[1].Name)

	e, err := s.FindEntityByName(ctx, "Health Portal")
	require.NoError(t, err)
	assignments, err := s.DomainsByEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	// Ordered by confidence: KH 2/3 first, Other 1/3 second.
	require.Equal(t, "KH", assignments[0].Domain)
	require.InDelta(t, 2.0/3.0, assignments[0].Confidence, 1e-9)
	require.Equal(t, FallbackDomain, assignments[1].Domain)
	require.InDelta(t, 1.0/3.0, assignments[1].Confidence, 1e-9)
	require.Equal(t, "classifier", assignments[0].Source)

	// Re-running replaces rather than duplicates.
	_, err = c.Recompute(ctx)
	require.NoError(t, err)
	assignments, err = s.DomainsByEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
}
