package review

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Rules is an optional policy pack loaded from a JSON file. Focus areas and
// required checks are folded into stage instructions; severity overrides are
// applied to parsed findings by category. With no rules file the pipeline
// behaves exactly as its defaults.
type Rules struct {
	Focus             []string          `json:"focus,omitempty"`
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty"`
	Required          []RequiredCheck   `json:"required,omitempty"`
}

// RequiredCheck is a policy check that should always be evaluated.
type RequiredCheck struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if
// path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &rules, nil
}

// PromptSection returns additional instruction text derived from the rules.
// Safe to call on a nil receiver.
func (r *Rules) PromptSection() string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	if len(r.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize findings in these areas.\n",
			strings.Join(r.Focus, ", "))
	}

	if len(r.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		// Stable order keeps the prompt, and so the cache key, deterministic.
		cats := make([]string, 0, len(r.SeverityOverrides))
		for cat := range r.SeverityOverrides {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s findings should be rated as %s severity.\n", cat, r.SeverityOverrides[cat])
		}
	}

	if len(r.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range r.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}

// ApplySeverityOverrides rewrites finding severities per the rules pack,
// keyed by category. Returns a new slice; the input findings are never
// modified. Safe to call on a nil receiver.
func (r *Rules) ApplySeverityOverrides(findings []Finding) []Finding {
	if r == nil || len(r.SeverityOverrides) == 0 {
		return findings
	}

	out := make([]Finding, len(findings))
	copy(out, findings)
	for i := range out {
		if override, ok := r.SeverityOverrides[string(out[i].Category)]; ok {
			out[i].Severity = ParseSeverity(override)
		}
	}
	return out
}
