package review

// Severity classifies how strongly a finding should gate the review.
type Severity string

const (
	SeverityBlocking    Severity = "BLOCKING"
	SeverityNonBlocking Severity = "NON_BLOCKING"
	SeveritySuggestion  Severity = "SUGGESTION"
)

// SeverityRank returns a numeric rank for ordering (higher = more blocking).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityBlocking:
		return 3
	case SeverityNonBlocking:
		return 2
	case SeveritySuggestion:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
// Thresholds are the lowercase severity names plus "none".
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(ParseSeverity(threshold))
}

// ParseSeverity normalizes a severity string. Unrecognized values map to
// SUGGESTION so a sloppy generator response never breaks a review.
func ParseSeverity(s string) Severity {
	switch Severity(normalizeSeverity(s)) {
	case SeverityBlocking:
		return SeverityBlocking
	case SeverityNonBlocking:
		return SeverityNonBlocking
	default:
		return SeveritySuggestion
	}
}

// Category identifies which review concern produced a finding.
type Category string

const (
	CategoryCorrectness         Category = "correctness"
	CategoryEngineeringQuality  Category = "engineering_quality"
	CategoryProductionReadiness Category = "production_readiness"
	// CategorySecurity is reserved; no stage emits it directly today.
	CategorySecurity Category = "security"
)

// Finding is a single review observation. Findings are value objects:
// created by the response parser, never mutated after they enter pipeline
// state.
type Finding struct {
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	FilePath     string   `json:"filePath,omitempty"`
	LineStart    int      `json:"lineStart,omitempty"`
	LineEnd      int      `json:"lineEnd,omitempty"`
	CodeSnippet  string   `json:"codeSnippet,omitempty"`
	SuggestedFix string   `json:"suggestedFix,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// PRContext holds the read-only pull request metadata supplied at
// pipeline start.
type PRContext struct {
	Number       int      `json:"number"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Author       string   `json:"author"`
	BaseBranch   string   `json:"baseBranch"`
	HeadBranch   string   `json:"headBranch"`
	FilesChanged []string `json:"filesChanged"`
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
	URL          string   `json:"url"`
}

// PipelineState is the single record threaded through the pipeline. Stages
// receive it by value and return a Patch; they never mutate their input.
type PipelineState struct {
	// Immutable inputs.
	Diff      string
	PR        PRContext
	Languages []string

	// Accumulated by stages.
	IntentSummary string
	Findings      []Finding

	// Terminal outputs.
	Decision        string
	ConfidenceScore float64
	Report          string

	// Diagnostics.
	RunID        string
	CurrentStage string
	ErrorMessage string
}

// Patch is the partial state update a stage returns. Pointer fields that are
// nil leave the corresponding state field untouched; Findings are appended,
// never replaced.
type Patch struct {
	IntentSummary   *string
	Findings        []Finding
	Decision        *string
	ConfidenceScore *float64
	Report          *string
	CurrentStage    string
}

// Apply merges a patch into the state and returns the updated copy. Scalars
// overwrite when present, findings append in patch order.
func (s PipelineState) Apply(p Patch) PipelineState {
	if p.IntentSummary != nil {
		s.IntentSummary = *p.IntentSummary
	}
	if p.Decision != nil {
		s.Decision = *p.Decision
	}
	if p.ConfidenceScore != nil {
		s.ConfidenceScore = *p.ConfidenceScore
	}
	if p.Report != nil {
		s.Report = *p.Report
	}
	if p.CurrentStage != "" {
		s.CurrentStage = p.CurrentStage
	}
	if len(p.Findings) > 0 {
		merged := make([]Finding, 0, len(s.Findings)+len(p.Findings))
		merged = append(merged, s.Findings...)
		merged = append(merged, p.Findings...)
		s.Findings = merged
	}
	return s
}

// SeverityCounts holds finding counts by severity.
type SeverityCounts struct {
	Blocking    int `json:"blocking"`
	NonBlocking int `json:"nonBlocking"`
	Suggestions int `json:"suggestions"`
}

// Total returns the number of findings across all severities.
func (c SeverityCounts) Total() int {
	return c.Blocking + c.NonBlocking + c.Suggestions
}

// CountBySeverity tallies findings by severity.
func CountBySeverity(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityBlocking:
			c.Blocking++
		case SeverityNonBlocking:
			c.NonBlocking++
		case SeveritySuggestion:
			c.Suggestions++
		}
	}
	return c
}

// Report is the structured result handed to output writers and the GitHub
// reporter once a pipeline run completes.
type Report struct {
	Tool            string         `json:"tool"`
	Version         string         `json:"version"`
	RunID           string         `json:"runId"`
	PR              PRContext      `json:"pr"`
	Languages       []string       `json:"languages"`
	Decision        string         `json:"decision"`
	ConfidenceScore float64        `json:"confidenceScore"`
	IntentSummary   string         `json:"intentSummary"`
	Summary         SeverityCounts `json:"summary"`
	Findings        []Finding      `json:"findings"`
}

// BuildReport assembles a Report from a completed pipeline state.
func BuildReport(state PipelineState) *Report {
	findings := state.Findings
	if findings == nil {
		findings = []Finding{}
	}
	return &Report{
		Tool:            "gavel",
		Version:         "0.1",
		RunID:           state.RunID,
		PR:              state.PR,
		Languages:       state.Languages,
		Decision:        state.Decision,
		ConfidenceScore: state.ConfidenceScore,
		IntentSummary:   state.IntentSummary,
		Summary:         CountBySeverity(findings),
		Findings:        findings,
	}
}
