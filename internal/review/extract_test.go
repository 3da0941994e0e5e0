package review

import (
	"strings"
	"testing"
)

func TestParseFindings_ValidJSON(t *testing.T) {
	input := `{
		"findings": [
			{
				"severity": "BLOCKING",
				"title": "Nil map write",
				"description": "Writing to an uninitialized map panics",
				"file_path": "store.py",
				"line_start": 10,
				"line_end": 12,
				"code_snippet": "cache[key] = value",
				"suggested_fix": "Initialize the map first",
				"confidence": 0.9
			},
			{
				"severity": "SUGGESTION",
				"title": "Rename variable",
				"description": "x is unclear",
				"confidence": 0.6
			}
		]
	}`

	findings := ParseFindings(input, CategoryCorrectness)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}

	f := findings[0]
	if f.Severity != SeverityBlocking {
		t.Errorf("finding[0].Severity = %q, want %q", f.Severity, SeverityBlocking)
	}
	if f.Category != CategoryCorrectness {
		t.Errorf("finding[0].Category = %q, want %q", f.Category, CategoryCorrectness)
	}
	if f.Title != "Nil map write" {
		t.Errorf("finding[0].Title = %q", f.Title)
	}
	if f.FilePath != "store.py" || f.LineStart != 10 || f.LineEnd != 12 {
		t.Errorf("finding[0] location = %s:%d-%d, want store.py:10-12",
			f.FilePath, f.LineStart, f.LineEnd)
	}
	if f.Confidence != 0.9 {
		t.Errorf("finding[0].Confidence = %v, want 0.9", f.Confidence)
	}
	if findings[1].Severity != SeveritySuggestion {
		t.Errorf("finding[1].Severity = %q, want %q", findings[1].Severity, SeveritySuggestion)
	}
}

func TestParseFindings_CategoryAlwaysFromCaller(t *testing.T) {
	// A category field in the response must be ignored.
	input := `{"findings": [{"severity": "BLOCKING", "title": "t", "description": "d", "category": "made_up"}]}`
	findings := ParseFindings(input, CategoryProductionReadiness)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Category != CategoryProductionReadiness {
		t.Errorf("Category = %q, want %q", findings[0].Category, CategoryProductionReadiness)
	}
}

func TestParseFindings_JSONFence(t *testing.T) {
	input := "Here is my analysis:\n```json\n{\"findings\": [{\"severity\": \"NON_BLOCKING\", \"title\": \"t\", \"description\": \"d\"}]}\n```\nHope that helps!"
	findings := ParseFindings(input, CategoryEngineeringQuality)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Severity != SeverityNonBlocking {
		t.Errorf("Severity = %q, want %q", findings[0].Severity, SeverityNonBlocking)
	}
}

func TestParseFindings_GenericFence(t *testing.T) {
	input := "```\n{\"findings\": []}\n```"
	findings := ParseFindings(input, CategoryCorrectness)
	if findings == nil {
		t.Fatal("expected empty non-nil result for a valid empty findings object")
	}
	if len(findings) != 0 {
		t.Errorf("got %d findings, want 0", len(findings))
	}
}

func TestParseFindings_Garbage(t *testing.T) {
	for _, input := range []string{
		"",
		"I could not find any issues in this code.",
		"```json\nnot json\n```",
		`{"findings": "not an array"}`,
		`[1, 2, 3]`,
	} {
		findings := ParseFindings(input, CategoryCorrectness)
		if len(findings) != 0 {
			t.Errorf("ParseFindings(%q) = %d findings, want 0", input, len(findings))
		}
	}
}

func TestParseFindings_Defaults(t *testing.T) {
	input := `{"findings": [{"severity": "BLOCKING"}]}`
	findings := ParseFindings(input, CategoryCorrectness)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Title != "Untitled issue" {
		t.Errorf("Title = %q, want default", f.Title)
	}
	if f.Description != "No description" {
		t.Errorf("Description = %q, want default", f.Description)
	}
	if f.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", f.Confidence)
	}
}

func TestParseFindings_SeverityNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
	}{
		{"blocking", SeverityBlocking},
		{"  Blocking  ", SeverityBlocking},
		{"non_blocking", SeverityNonBlocking},
		{"suggestion", SeveritySuggestion},
		{"CRITICAL", SeveritySuggestion},
		{"", SeveritySuggestion},
	}
	for _, tt := range tests {
		input := `{"findings": [{"severity": "` + tt.raw + `", "title": "t", "description": "d"}]}`
		findings := ParseFindings(input, CategoryCorrectness)
		if len(findings) != 1 {
			t.Fatalf("severity %q: got %d findings, want 1", tt.raw, len(findings))
		}
		if findings[0].Severity != tt.want {
			t.Errorf("severity %q normalized to %q, want %q", tt.raw, findings[0].Severity, tt.want)
		}
	}
}

func TestParseFindings_ConfidenceClamped(t *testing.T) {
	input := `{"findings": [
		{"severity": "BLOCKING", "title": "a", "description": "d", "confidence": 1.7},
		{"severity": "BLOCKING", "title": "b", "description": "d", "confidence": -0.3}
	]}`
	findings := ParseFindings(input, CategoryCorrectness)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	if findings[0].Confidence != 1.0 {
		t.Errorf("high confidence clamped to %v, want 1.0", findings[0].Confidence)
	}
	if findings[1].Confidence != 0.0 {
		t.Errorf("low confidence clamped to %v, want 0.0", findings[1].Confidence)
	}
}

func TestExtractJSONBlock_PrefersJSONFence(t *testing.T) {
	input := "```\ngeneric\n```\n```json\n{\"a\": 1}\n```"
	got := strings.TrimSpace(ExtractJSONBlock(input))
	if got != `{"a": 1}` {
		t.Errorf("ExtractJSONBlock = %q, want the json fence content", got)
	}
}

func TestExtractJSONBlock_UnterminatedFence(t *testing.T) {
	input := "```json\n{\"findings\": []}"
	got := strings.TrimSpace(ExtractJSONBlock(input))
	if got != `{"findings": []}` {
		t.Errorf("ExtractJSONBlock = %q, want rest-of-text after the opener", got)
	}
}

func TestExtractJSONBlock_NoFence(t *testing.T) {
	input := `{"findings": []}`
	if got := ExtractJSONBlock(input); got != input {
		t.Errorf("ExtractJSONBlock = %q, want input unchanged", got)
	}
}
