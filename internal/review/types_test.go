package review

import "testing"

func TestApply_ScalarsOverwriteWhenPresent(t *testing.T) {
	state := PipelineState{IntentSummary: "old", Decision: "old"}

	summary := "new summary"
	updated := state.Apply(Patch{IntentSummary: &summary, CurrentStage: StageIntent})

	if updated.IntentSummary != "new summary" {
		t.Errorf("IntentSummary = %q, want overwritten", updated.IntentSummary)
	}
	if updated.Decision != "old" {
		t.Errorf("Decision = %q, want untouched (nil pointer)", updated.Decision)
	}
	if updated.CurrentStage != StageIntent {
		t.Errorf("CurrentStage = %q, want %q", updated.CurrentStage, StageIntent)
	}
	if state.IntentSummary != "old" {
		t.Error("Apply must not mutate its receiver")
	}
}

func TestApply_FindingsAppend(t *testing.T) {
	state := PipelineState{Findings: []Finding{finding(SeverityBlocking, 0.9)}}

	updated := state.Apply(Patch{Findings: []Finding{
		finding(SeveritySuggestion, 0.5),
		finding(SeverityNonBlocking, 0.7),
	}})

	if len(updated.Findings) != 3 {
		t.Fatalf("got %d findings, want 3", len(updated.Findings))
	}
	if updated.Findings[0].Severity != SeverityBlocking {
		t.Error("existing findings must stay in front")
	}
	if len(state.Findings) != 1 {
		t.Error("Apply must not mutate the original findings slice")
	}
}

func TestApply_EmptyPatchIsNoop(t *testing.T) {
	state := PipelineState{
		IntentSummary: "s",
		Findings:      []Finding{finding(SeverityBlocking, 0.9)},
		Decision:      DecisionFail,
	}
	updated := state.Apply(Patch{})
	if updated.IntentSummary != state.IntentSummary ||
		updated.Decision != state.Decision ||
		len(updated.Findings) != len(state.Findings) {
		t.Error("empty patch should leave state unchanged")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"BLOCKING", SeverityBlocking},
		{"blocking", SeverityBlocking},
		{" non_blocking ", SeverityNonBlocking},
		{"SUGGESTION", SeveritySuggestion},
		{"HIGH", SeveritySuggestion},
		{"", SeveritySuggestion},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityBlocking, "blocking", true},
		{SeverityNonBlocking, "blocking", false},
		{SeverityNonBlocking, "non_blocking", true},
		{SeveritySuggestion, "suggestion", true},
		{SeverityBlocking, "none", false},
		{SeverityBlocking, "", false},
	}
	for _, tt := range tests {
		if got := MeetsThreshold(tt.severity, tt.threshold); got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestCountBySeverity(t *testing.T) {
	findings := []Finding{
		finding(SeverityBlocking, 0.9),
		finding(SeverityBlocking, 0.9),
		finding(SeverityNonBlocking, 0.7),
		finding(SeveritySuggestion, 0.5),
	}
	c := CountBySeverity(findings)
	if c.Blocking != 2 || c.NonBlocking != 1 || c.Suggestions != 1 {
		t.Errorf("counts = %+v, want 2/1/1", c)
	}
	if c.Total() != 4 {
		t.Errorf("Total = %d, want 4", c.Total())
	}
}

func TestBuildReport(t *testing.T) {
	state := PipelineState{
		PR:              PRContext{Number: 42, Title: "T"},
		Languages:       []string{"python"},
		Decision:        DecisionFail,
		ConfidenceScore: 0.85,
		IntentSummary:   "summary",
		RunID:           "01RUN",
		Findings:        []Finding{finding(SeverityBlocking, 0.9)},
	}
	r := BuildReport(state)
	if r.Tool != "gavel" {
		t.Errorf("Tool = %q", r.Tool)
	}
	if r.PR.Number != 42 || r.Decision != DecisionFail || r.RunID != "01RUN" {
		t.Errorf("report fields not carried over: %+v", r)
	}
	if r.Summary.Blocking != 1 {
		t.Errorf("Summary.Blocking = %d, want 1", r.Summary.Blocking)
	}
}

func TestBuildReport_NilFindings(t *testing.T) {
	r := BuildReport(PipelineState{})
	if r.Findings == nil {
		t.Error("Findings should serialize as [], not null")
	}
}
