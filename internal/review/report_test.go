package review

import (
	"strings"
	"testing"
)

func sampleReport() *Report {
	return BuildReport(PipelineState{
		PR:              PRContext{Number: 5, Title: "Add retries"},
		Languages:       []string{"python"},
		Decision:        DecisionFail,
		ConfidenceScore: 0.91,
		IntentSummary:   "**Intent**: add retry logic",
		RunID:           "01RUNID",
		Findings: []Finding{
			{
				Severity:     SeverityBlocking,
				Category:     CategoryCorrectness,
				Title:        "Infinite retry loop",
				Description:  "No backoff cap",
				FilePath:     "client.py",
				LineStart:    10,
				LineEnd:      14,
				CodeSnippet:  "while True: retry()",
				SuggestedFix: "Cap attempts",
				Confidence:   0.9,
			},
			{
				Severity:    SeveritySuggestion,
				Category:    CategoryEngineeringQuality,
				Title:       "Extract helper",
				Description: "Duplicated retry setup",
				Confidence:  0.6,
			},
		},
	})
}

func TestRenderMarkdown_StartsWithHeading(t *testing.T) {
	md := RenderMarkdown(sampleReport(), "")
	if !strings.HasPrefix(md, ReportHeading()) {
		t.Errorf("report should start with %q, got %q", ReportHeading(), md[:40])
	}
}

func TestRenderMarkdown_Verdict(t *testing.T) {
	md := RenderMarkdown(sampleReport(), "")
	if !strings.Contains(md, "**Verdict: FAIL**") {
		t.Error("FAIL verdict missing")
	}
	if !strings.Contains(md, "confidence 91%") {
		t.Error("confidence percentage missing")
	}

	pass := sampleReport()
	pass.Decision = DecisionPass
	md = RenderMarkdown(pass, "")
	if !strings.Contains(md, "**Verdict: PASS**") {
		t.Error("PASS verdict missing")
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	md := RenderMarkdown(sampleReport(), "")

	for _, want := range []string{
		"### Intent",
		"**Intent**: add retry logic",
		"| Blocking | 1 |",
		"| Suggestions | 1 |",
		"<summary>:red_circle: Blocking (1)</summary>",
		"### Infinite retry loop",
		"**`client.py`** (lines 10-14)",
		"```python\nwhile True: retry()\n```",
		"**Suggested fix:** Cap attempts",
		"<summary>:yellow_circle: Suggestions (1)</summary>",
		"*Run `01RUNID`*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Empty severity sections are omitted entirely.
	if strings.Contains(md, "Non-blocking (0)") {
		t.Error("empty severity section should be omitted")
	}
}

func TestRenderMarkdown_NoFindings(t *testing.T) {
	r := BuildReport(PipelineState{Decision: DecisionPass, ConfidenceScore: 0.9, RunID: "01X"})
	md := RenderMarkdown(r, "")
	if !strings.Contains(md, "No issues found.") {
		t.Error("clean report should say no issues found")
	}
	if strings.Contains(md, "<details>") {
		t.Error("clean report should have no detail sections")
	}
}

func TestRenderMarkdown_ArtifactLink(t *testing.T) {
	md := RenderMarkdown(sampleReport(), "https://github.com/o/r/actions/runs/9")
	if !strings.Contains(md, "[Workflow run](https://github.com/o/r/actions/runs/9)") {
		t.Error("artifact URL should be linked in the footer")
	}

	md = RenderMarkdown(sampleReport(), "")
	if strings.Contains(md, "[Workflow run]") {
		t.Error("footer link should be omitted without a URL")
	}
}
