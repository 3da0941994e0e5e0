package review

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed criteria.yaml
var defaultCriteriaYAML []byte

// noCriteriaFallback is appended when none of the detected languages have a
// checklist entry.
const noCriteriaFallback = "No specific language criteria available. Apply general code review best practices."

// CriteriaPack maps language identifiers to review checklists. Aliases let
// one language reuse another's checklist (typescript -> javascript).
type CriteriaPack struct {
	Criteria map[string]string `yaml:"criteria"`
	Aliases  map[string]string `yaml:"aliases"`
}

// For returns the checklist for a language, following one level of alias.
// Unknown languages return the empty string.
func (p *CriteriaPack) For(language string) string {
	if c, ok := p.Criteria[language]; ok {
		return c
	}
	if target, ok := p.Aliases[language]; ok {
		return p.Criteria[target]
	}
	return ""
}

// Combined joins the checklists for all given languages, skipping languages
// with no entry. With no matches it returns the general-practices fallback.
func (p *CriteriaPack) Combined(languages []string) string {
	var parts []string
	for _, lang := range languages {
		if c := p.For(lang); c != "" {
			parts = append(parts, strings.TrimRight(c, "\n"))
		}
	}
	if len(parts) == 0 {
		return noCriteriaFallback
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// DefaultCriteria parses the embedded checklist pack. The embedded document
// is validated by tests, so a parse failure is a programming error.
func DefaultCriteria() *CriteriaPack {
	pack, err := parseCriteria(defaultCriteriaYAML)
	if err != nil {
		panic("embedded criteria pack is invalid: " + err.Error())
	}
	return pack
}

// LoadCriteria returns the criteria pack to use: the file at path when
// given, else the embedded defaults.
func LoadCriteria(path string) (*CriteriaPack, error) {
	if path == "" {
		return DefaultCriteria(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading criteria file: %w", err)
	}
	pack, err := parseCriteria(data)
	if err != nil {
		return nil, fmt.Errorf("parsing criteria file: %w", err)
	}
	return pack, nil
}

func parseCriteria(data []byte) (*CriteriaPack, error) {
	var pack CriteriaPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	if pack.Criteria == nil {
		pack.Criteria = map[string]string{}
	}
	return &pack, nil
}
