package review

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/dshills/gavel/internal/logging"
)

// Pipeline runs the fixed linear stage sequence:
//
//	intent_analysis -> bug_logic_review -> engineering_quality_review ->
//	production_readiness_review -> decision_engine -> report_generator
//
// There is no branching, no retries, and no concurrency between stages; each
// stage sees the state as of completion of its predecessor. A Pipeline holds
// no cross-run state and may be reused for sequential runs.
type Pipeline struct {
	gen    Generator
	stages []Stage
}

// Options configures optional pipeline behavior.
type Options struct {
	// Criteria overrides the embedded per-language checklists. Nil uses
	// the defaults.
	Criteria *CriteriaPack
	// Rules is an optional policy pack. Nil means default behavior.
	Rules *Rules
}

// NewPipeline builds the standard six-stage pipeline around a generator.
func NewPipeline(gen Generator, opts Options) *Pipeline {
	criteria := opts.Criteria
	if criteria == nil {
		criteria = DefaultCriteria()
	}

	return &Pipeline{
		gen: gen,
		stages: []Stage{
			&intentAnalysis{},
			&analysisStage{
				name:     StageBugLogic,
				category: CategoryCorrectness,
				template: bugLogicSystemPrompt,
				heading:  "Bug and Logic Analysis",
				closing:  "Identify any bugs, logic errors, or correctness issues in this diff.",
				criteria: criteria,
				rules:    opts.Rules,
			},
			&analysisStage{
				name:     StageEngineeringQuality,
				category: CategoryEngineeringQuality,
				template: engineeringQualitySystemPrompt,
				heading:  "Engineering Quality Analysis",
				closing:  "Identify any engineering quality issues in this diff.",
				criteria: criteria,
				rules:    opts.Rules,
			},
			&analysisStage{
				name:     StageProductionReadiness,
				category: CategoryProductionReadiness,
				template: productionReadinessSystemPrompt,
				heading:  "Production Readiness Analysis",
				closing:  "Identify any production readiness issues in this diff.",
				criteria: criteria,
				rules:    opts.Rules,
			},
			&decisionEngine{},
			&reportGenerator{},
		},
	}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run threads the state through every stage in order, merging each stage's
// patch into the running state. A stage error aborts the run; the partially
// accumulated state is returned alongside the error for diagnostics, with
// ErrorMessage set. Malformed generator output is not an error (it degrades
// to zero findings inside the stage).
func (p *Pipeline) Run(ctx context.Context, state PipelineState) (PipelineState, error) {
	if state.RunID == "" {
		state.RunID = ulid.Make().String()
	}
	logging.Log.Infow("starting review pipeline",
		"runId", state.RunID, "pr", state.PR.Number, "languages", state.Languages)

	for _, stage := range p.stages {
		patch, err := stage.Run(ctx, state, p.gen)
		if err != nil {
			state.ErrorMessage = err.Error()
			return state, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		state = state.Apply(patch)
		logging.Log.Infow("stage complete",
			"stage", stage.Name(), "findings", len(state.Findings))
	}

	logging.Log.Infof("review complete\n%s", DecisionSummary(state))
	return state, nil
}
