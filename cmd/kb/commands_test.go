package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, dbPath string, stdin string, args ...string) string {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != "" {
		root.SetIn(strings.NewReader(stdin))
	}
	root.SetArgs(append([]string{"--db", dbPath}, args...))

	if err := root.Execute(); err != nil {
		t.Fatalf("Command %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestAssertAndQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kb.db")

	out := runCommand(t, db, "", "assert", "Ada Lovelace", "role", "mathematician", "--type", "person")
	if !strings.Contains(out, "created") {
		t.Errorf("Expected created outcome, got: %s", out)
	}

	out = runCommand(t, db, "", "query", "ada")
	if !strings.Contains(out, "Ada Lovelace") || !strings.Contains(out, "mathematician") {
		t.Errorf("Unexpected query output: %s", out)
	}

	// Supersede and check history.
	runCommand(t, db, "", "assert", "Ada Lovelace", "role", "programmer")
	out = runCommand(t, db, "", "query", "ada", "--history")
	if !strings.Contains(out, "programmer") || !strings.Contains(out, "mathematician") {
		t.Errorf("Expected both versions with --history: %s", out)
	}
}

func TestIngestFromStdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kb.db")

	batch := `{
		"entities": [{"name": "gognee", "type": "tool"}],
		"facts": [{"entity_name": "gognee", "attribute": "language", "value": "go"}],
		"relations": [],
		"decisions": [{"title": "keep it simple"}]
	}`

	out := runCommand(t, db, batch, "ingest", "--source", "notes/tools.md")
	if !strings.Contains(out, "1 created") {
		t.Errorf("Unexpected ingest output: %s", out)
	}

	out = runCommand(t, db, "", "decisions")
	if !strings.Contains(out, "keep it simple") {
		t.Errorf("Expected decision listed: %s", out)
	}

	out = runCommand(t, db, "", "entities")
	if !strings.Contains(out, "gognee") {
		t.Errorf("Expected entity listed: %s", out)
	}
}
