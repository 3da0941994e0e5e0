package review

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Diff size budgets per stage. Anything beyond the budget is cut and marked
// with truncationNote so the generator knows context is incomplete.
const (
	analysisDiffBudget = 12000
	intentDiffBudget   = 8000
	truncationNote     = "... (diff truncated)"
)

// criteriaMarker is replaced with the per-language checklist when a stage
// builds its system instruction.
const criteriaMarker = "{language_criteria}"

// findingsOutputShape is the JSON contract shared by all analysis stages.
const findingsOutputShape = `For each issue found, output JSON in this format:
{
    "findings": [
        {
            "severity": "BLOCKING|NON_BLOCKING|SUGGESTION",
            "title": "Short title",
            "description": "Detailed explanation of the issue",
            "file_path": "path/to/file.py",
            "line_start": 42,
            "line_end": 45,
            "code_snippet": "the problematic code",
            "suggested_fix": "how to fix it",
            "confidence": 0.9
        }
    ]
}`

const bugLogicSystemPrompt = `You are a senior software engineer performing a code review focused on correctness and logic errors.

Your task is to identify bugs, logic errors, and correctness issues in the code diff provided.

Look for:
1. Null/undefined reference errors
2. Off-by-one errors
3. Incorrect conditional logic
4. Edge cases not handled (empty arrays, zero values, negative numbers)
5. Type mismatches or incorrect assumptions
6. Race conditions or concurrency issues
7. Incorrect error handling

{language_criteria}

` + findingsOutputShape + `

Guidelines:
- Use BLOCKING for issues that will definitely cause bugs in production
- Use NON_BLOCKING for potential issues that should be addressed
- Use SUGGESTION for style improvements or minor concerns
- Set confidence based on how certain you are (0.5-1.0)
- Say "UNCERTAIN" in the description if you need more context
- Do NOT flag issues that don't exist in the diff
- Be specific about file paths and line numbers when possible

If no issues are found, return: {"findings": []}`

const engineeringQualitySystemPrompt = `You are a senior software engineer reviewing code for engineering quality and best practices.

Your task is to identify engineering quality issues that could cause problems at scale or during maintenance.

Look for:
1. Missing pagination on list/query operations
2. N+1 query patterns (database queries in loops)
3. Missing input validation
4. Improper error handling (catching generic exceptions, swallowing errors)
5. Performance anti-patterns (unbounded loops, excessive allocations)
6. Missing type safety / type hints
7. Code duplication that should be abstracted
8. Async/await issues (blocking calls in async context)

{language_criteria}

` + findingsOutputShape + `

Guidelines:
- BLOCKING: Issues that will cause production outages or data loss at scale
- NON_BLOCKING: Best practice violations that should be fixed
- SUGGESTION: Improvements that would be nice to have
- Be specific about WHY something is a problem
- Provide actionable fixes

If no issues are found, return: {"findings": []}`

const productionReadinessSystemPrompt = `You are a senior SRE/DevOps engineer reviewing code for production readiness.

Your task is to identify issues that could cause problems when this code runs in production.

Look for:
1. Hardcoded secrets, API keys, or credentials
2. Missing logging for important operations
3. Missing timeout configuration on HTTP/database calls
4. Environment variables not used for configuration
5. Missing health checks or observability hooks
6. Not handling transient failures (missing retries)
7. Security issues (SQL injection, XSS, SSRF potential)
8. Missing rate limiting on public endpoints

{language_criteria}

` + findingsOutputShape + `

Guidelines:
- BLOCKING: Issues that will cause outages, data breaches, or security incidents
- NON_BLOCKING: Operational gaps that should be fixed before scaling
- SUGGESTION: Hardening improvements that would be nice to have
- Be specific about the production scenario that goes wrong

If no issues are found, return: {"findings": []}`

const intentSystemPrompt = `You are a senior software engineer analyzing a Pull Request to understand its intent.

Your task is to:
1. Summarize what this PR is trying to accomplish in 2-3 sentences
2. Identify the main areas of change (new features, bug fixes, refactoring, etc.)
3. Assess the risk level (low, medium, high) based on the scope of changes

Output your analysis as JSON with this structure:
{
    "summary": "Brief description of what this PR does",
    "change_type": "feature|bugfix|refactor|docs|test|chore",
    "risk_level": "low|medium|high",
    "areas_affected": ["list", "of", "affected", "areas"],
    "key_concerns": ["list of things to watch out for during review"]
}

Be concise and focus on the most important information.`

// buildAnalysisSystemPrompt fills the language checklist into a stage's
// instruction template and appends any rules-pack focus section.
func buildAnalysisSystemPrompt(template string, criteria *CriteriaPack, languages []string, rules *Rules) string {
	prompt := strings.Replace(template, criteriaMarker, criteria.Combined(languages), 1)
	if section := rules.PromptSection(); section != "" {
		prompt += "\n" + section
	}
	return prompt
}

// buildAnalysisUserPrompt assembles the per-stage user content: the intent
// summary from the first stage, detected languages, and the budgeted diff.
func buildAnalysisUserPrompt(heading, closing string, state PipelineState) string {
	diff, truncated := truncateDiff(state.Diff, analysisDiffBudget)

	var b strings.Builder
	fmt.Fprintf(&b, "# Code Review: %s\n\n", heading)
	b.WriteString("## PR Context\n")
	b.WriteString(state.IntentSummary)
	b.WriteString("\n\n## Languages\n")
	b.WriteString(languageList(state.Languages))
	b.WriteString("\n\n## Diff to Review\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")
	if truncated {
		b.WriteString(truncationNote)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(closing)
	return b.String()
}

// maxIntentFileList caps how many changed file names the intent prompt lists.
const maxIntentFileList = 20

func buildIntentUserPrompt(state PipelineState) string {
	diff, truncated := truncateDiff(state.Diff, intentDiffBudget)
	pr := state.PR

	var b strings.Builder
	fmt.Fprintf(&b, "# Pull Request: %s\n\n", pr.Title)
	b.WriteString("## Description\n")
	if pr.Description != "" {
		b.WriteString(pr.Description)
	} else {
		b.WriteString("No description provided.")
	}
	fmt.Fprintf(&b, "\n\n## Files Changed (%d files, +%d/-%d)\n",
		len(pr.FilesChanged), pr.Additions, pr.Deletions)
	for i, f := range pr.FilesChanged {
		if i >= maxIntentFileList {
			b.WriteString("... and more files\n")
			break
		}
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n## Diff\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")
	if truncated {
		b.WriteString(truncationNote)
		b.WriteString("\n")
	}
	return b.String()
}

func languageList(languages []string) string {
	if len(languages) == 0 {
		return "General"
	}
	return strings.Join(languages, ", ")
}

func truncateDiff(diff string, budget int) (string, bool) {
	if len(diff) <= budget {
		return diff, false
	}
	return cutAtRune(diff, budget), true
}

// cutAtRune truncates s to at most limit bytes, backing up so a multi-byte
// rune is never split.
func cutAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
