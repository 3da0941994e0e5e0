package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/gavel/internal/logging"
)

// Generator is the single-shot text-generation capability every stage calls
// exactly once. Implementations enforce their own timeouts and retries; the
// pipeline sees one call per stage with no streaming.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// Stage is one step of the linear review pipeline. Run consumes the
// accumulated state and returns a patch; it must not mutate its input.
type Stage interface {
	Name() string
	Run(ctx context.Context, state PipelineState, gen Generator) (Patch, error)
}

// Stage names, in execution order.
const (
	StageIntent              = "intent_analysis"
	StageBugLogic            = "bug_logic_review"
	StageEngineeringQuality  = "engineering_quality_review"
	StageProductionReadiness = "production_readiness_review"
	StageDecision            = "decision_engine"
	StageReport              = "report_generator"
)

// analysisStage reviews the diff for one concern area. Three instances cover
// correctness, engineering quality, and production readiness; they differ
// only in instruction template, category, and user-prompt framing.
type analysisStage struct {
	name     string
	category Category
	template string
	heading  string
	closing  string
	criteria *CriteriaPack
	rules    *Rules
}

func (s *analysisStage) Name() string { return s.name }

func (s *analysisStage) Run(ctx context.Context, state PipelineState, gen Generator) (Patch, error) {
	system := buildAnalysisSystemPrompt(s.template, s.criteria, state.Languages, s.rules)
	user := buildAnalysisUserPrompt(s.heading, s.closing, state)

	content, err := gen.Generate(ctx, system, user)
	if err != nil {
		return Patch{}, fmt.Errorf("generating %s analysis: %w", s.category, err)
	}

	findings := ParseFindings(content, s.category)
	if findings == nil && strings.TrimSpace(content) != "" {
		logging.Log.Warnw("unparseable stage output, contributing no findings",
			"stage", s.name)
	}
	findings = s.rules.ApplySeverityOverrides(findings)

	return Patch{Findings: findings, CurrentStage: s.name}, nil
}

// intentAnalysis is the distinguished first stage: it produces the
// free-text intent summary later stages embed in their prompts, and no
// findings.
type intentAnalysis struct{}

func (s *intentAnalysis) Name() string { return StageIntent }

// intentResponse is the structure the intent stage asks the generator for.
type intentResponse struct {
	Summary       string   `json:"summary"`
	ChangeType    string   `json:"change_type"`
	RiskLevel     string   `json:"risk_level"`
	AreasAffected []string `json:"areas_affected"`
	KeyConcerns   []string `json:"key_concerns"`
}

// intentFallbackLimit caps how much raw output becomes the summary when the
// intent response does not parse.
const intentFallbackLimit = 500

func (s *intentAnalysis) Run(ctx context.Context, state PipelineState, gen Generator) (Patch, error) {
	content, err := gen.Generate(ctx, intentSystemPrompt, buildIntentUserPrompt(state))
	if err != nil {
		return Patch{}, fmt.Errorf("generating intent analysis: %w", err)
	}

	summary := formatIntentSummary(content)
	return Patch{IntentSummary: &summary, CurrentStage: StageIntent}, nil
}

// formatIntentSummary renders the structured intent response as a readable
// multi-line summary. Missing fields degrade to placeholders; a response
// that does not parse at all degrades to its own first 500 characters.
func formatIntentSummary(content string) string {
	body := strings.TrimSpace(ExtractJSONBlock(content))

	var resp intentResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return "Intent analysis: " + cutAtRune(content, intentFallbackLimit)
	}

	if resp.Summary == "" {
		resp.Summary = "Unable to determine"
	}
	if resp.ChangeType == "" {
		resp.ChangeType = "unknown"
	}
	if resp.RiskLevel == "" {
		resp.RiskLevel = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Intent**: %s\n\n", resp.Summary)
	fmt.Fprintf(&b, "**Change Type**: %s\n", resp.ChangeType)
	fmt.Fprintf(&b, "**Risk Level**: %s\n", resp.RiskLevel)
	fmt.Fprintf(&b, "**Areas Affected**: %s\n\n", strings.Join(resp.AreasAffected, ", "))
	b.WriteString("**Key Concerns**:")
	for _, c := range resp.KeyConcerns {
		fmt.Fprintf(&b, "\n- %s", c)
	}
	return b.String()
}

// decisionEngine reduces the accumulated findings to the final verdict. It
// makes no generation calls.
type decisionEngine struct{}

func (s *decisionEngine) Name() string { return StageDecision }

func (s *decisionEngine) Run(_ context.Context, state PipelineState, _ Generator) (Patch, error) {
	decision, confidence := Decide(state.Findings)
	return Patch{
		Decision:        &decision,
		ConfidenceScore: &confidence,
		CurrentStage:    StageDecision,
	}, nil
}

// reportGenerator renders the markdown report into state. The GitHub
// reporter re-renders with the workflow artifact URL before posting.
type reportGenerator struct{}

func (s *reportGenerator) Name() string { return StageReport }

func (s *reportGenerator) Run(_ context.Context, state PipelineState, _ Generator) (Patch, error) {
	report := RenderMarkdown(BuildReport(state), "")
	return Patch{Report: &report, CurrentStage: StageReport}, nil
}
