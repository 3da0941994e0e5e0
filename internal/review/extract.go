package review

import (
	"encoding/json"
	"strings"
)

// rawFinding mirrors the JSON shape generators are asked to produce.
// Confidence is a pointer so an absent field can take the default.
type rawFinding struct {
	Severity     string   `json:"severity"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	FilePath     string   `json:"file_path"`
	LineStart    int      `json:"line_start"`
	LineEnd      int      `json:"line_end"`
	CodeSnippet  string   `json:"code_snippet"`
	SuggestedFix string   `json:"suggested_fix"`
	Confidence   *float64 `json:"confidence"`
}

const (
	defaultTitle       = "Untitled issue"
	defaultDescription = "No description"
	defaultConfidence  = 0.8
)

// ParseFindings extracts findings from free-form generator output. The text
// may wrap the JSON object in prose or markdown fences. Anything that does
// not parse into a {"findings": [...]} object degrades to an empty result;
// this function never fails, because one malformed response must not abort a
// multi-stage run. The category always comes from the caller — generators
// are not trusted to self-classify.
func ParseFindings(text string, category Category) []Finding {
	body := strings.TrimSpace(ExtractJSONBlock(text))

	var payload struct {
		Findings []rawFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil
	}

	findings := make([]Finding, 0, len(payload.Findings))
	for _, r := range payload.Findings {
		f := Finding{
			Severity:     ParseSeverity(r.Severity),
			Category:     category,
			Title:        r.Title,
			Description:  r.Description,
			FilePath:     r.FilePath,
			LineStart:    r.LineStart,
			LineEnd:      r.LineEnd,
			CodeSnippet:  r.CodeSnippet,
			SuggestedFix: r.SuggestedFix,
			Confidence:   defaultConfidence,
		}
		if f.Title == "" {
			f.Title = defaultTitle
		}
		if f.Description == "" {
			f.Description = defaultDescription
		}
		if r.Confidence != nil {
			f.Confidence = clamp01(*r.Confidence)
		}
		findings = append(findings, f)
	}
	return findings
}

// ExtractJSONBlock returns the most likely JSON payload in text: the content
// of the first ```json fence if present, else the first generic fence, else
// the text itself. An unterminated fence yields everything after the opener.
func ExtractJSONBlock(text string) string {
	if body, ok := fencedContent(text, "```json"); ok {
		return body
	}
	if body, ok := fencedContent(text, "```"); ok {
		return body
	}
	return text
}

func fencedContent(text, marker string) (string, bool) {
	i := strings.Index(text, marker)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(marker):]
	if j := strings.Index(rest, "```"); j >= 0 {
		return rest[:j], true
	}
	return rest, true
}

func normalizeSeverity(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
