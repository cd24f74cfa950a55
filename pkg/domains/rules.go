// Package domains assigns entities to weighted domain buckets based on the
// provenance of their facts.
package domains

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FallbackDomain tags facts whose source matches no rule.
const FallbackDomain = "Other"

// Rule maps a domain to the source-label patterns that select it. Rules are
// ordered: the first matching domain wins for a given source.
type Rule struct {
	Domain   string   `yaml:"domain"`
	Patterns []string `yaml:"patterns"`
}

// DefaultRules returns the built-in rule table used when no rules file is
// configured.
func DefaultRules() []Rule {
	return []Rule{
		{Domain: "KH", Patterns: []string{"kaufmann-health", "kaufmann/health", "kaufmann%health"}},
		{Domain: "Personal", Patterns: []string{"Personal-Support", "Personal/Support", "cornell", "email-katherine"}},
		{Domain: "VSS", Patterns: []string{"vss"}},
		{Domain: "IsAI", Patterns: []string{"IsAIConsciousYet", "isai"}},
		{Domain: "Infrastructure", Patterns: []string{"claude-sessions", "knowledge-base", "kkauf"}},
	}
}

// LoadRules reads an ordered rule list from a YAML file:
//
//	- domain: KH
//	  patterns: ["kaufmann-health", "kaufmann/health"]
//	- domain: Infrastructure
//	  patterns: ["claude-sessions", "knowledge-base"]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	for i, r := range rules {
		if r.Domain == "" {
			return nil, fmt.Errorf("rules file: rule %d has no domain", i)
		}
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("rules file: domain %q has no patterns", r.Domain)
		}
	}
	return rules, nil
}

// Detect classifies a source label against the ordered rules using
// case-insensitive substring matching. First matching domain wins; no match
// falls back to FallbackDomain.
func Detect(rules []Rule, source string) string {
	sourceLower := strings.ToLower(source)
	for _, r := range rules {
		for _, pat := range r.Patterns {
			if strings.Contains(sourceLower, strings.ToLower(pat)) {
				return r.Domain
			}
		}
	}
	return FallbackDomain
}
