package review

import (
	"fmt"
	"math"
	"strings"
)

// Verdicts.
const (
	DecisionPass = "PASS"
	DecisionFail = "FAIL"
)

// Confidence tuning. The nudge raises confidence on FAIL (blocking evidence
// in hand) and lowers it on PASS (absence of evidence is weaker), each
// clamped so scores stay in a sensible band. Tests pin these values.
const (
	noFindingsConfidence  = 0.9
	confidenceNudge       = 0.1
	failConfidenceCeiling = 0.95
	passConfidenceFloor   = 0.7
)

// Decide reduces a findings sequence to the final verdict and confidence
// score. It is a pure function: deterministic, order-independent, and total.
// The review fails exactly when at least one finding is BLOCKING.
func Decide(findings []Finding) (string, float64) {
	counts := CountBySeverity(findings)

	decision := DecisionPass
	if counts.Blocking > 0 {
		decision = DecisionFail
	}

	if len(findings) == 0 {
		return decision, noFindingsConfidence
	}

	var sum float64
	for _, f := range findings {
		sum += f.Confidence
	}
	base := sum / float64(len(findings))

	var confidence float64
	if decision == DecisionFail {
		confidence = math.Min(failConfidenceCeiling, base+confidenceNudge)
	} else {
		confidence = math.Max(passConfidenceFloor, base-confidenceNudge)
	}
	return decision, round2(clamp01(confidence))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DecisionSummary formats a decided state for logging.
func DecisionSummary(state PipelineState) string {
	counts := CountBySeverity(state.Findings)
	lines := []string{
		fmt.Sprintf("Decision: %s", state.Decision),
		fmt.Sprintf("Confidence: %.0f%%", state.ConfidenceScore*100),
		fmt.Sprintf("Blocking issues: %d", counts.Blocking),
		fmt.Sprintf("Non-blocking issues: %d", counts.NonBlocking),
		fmt.Sprintf("Suggestions: %d", counts.Suggestions),
	}
	return strings.Join(lines, "\n")
}
