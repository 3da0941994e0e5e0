package review

import (
	"fmt"
	"sort"
	"strings"
)

// commentHeading starts every rendered report. The GitHub reporter uses it
// to find and update an existing review comment.
const commentHeading = "## Gavel Review"

// ReportHeading returns the first line of every rendered report.
func ReportHeading() string { return commentHeading }

// RenderMarkdown formats a report as a markdown document suitable for a PR
// comment. artifactURL, when non-empty, is linked in the footer.
func RenderMarkdown(report *Report, artifactURL string) string {
	var b strings.Builder

	b.WriteString(commentHeading)
	b.WriteString("\n\n")

	switch report.Decision {
	case DecisionPass:
		fmt.Fprintf(&b, "**Verdict: PASS** :white_check_mark: (confidence %.0f%%)\n\n",
			report.ConfidenceScore*100)
	case DecisionFail:
		fmt.Fprintf(&b, "**Verdict: FAIL** :x: (confidence %.0f%%)\n\n",
			report.ConfidenceScore*100)
	default:
		b.WriteString("**Verdict: UNKNOWN**\n\n")
	}

	if report.IntentSummary != "" {
		b.WriteString("### Intent\n\n")
		b.WriteString(report.IntentSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("| Severity | Count |\n")
	b.WriteString("|----------|-------|\n")
	fmt.Fprintf(&b, "| Blocking | %d |\n", report.Summary.Blocking)
	fmt.Fprintf(&b, "| Non-blocking | %d |\n", report.Summary.NonBlocking)
	fmt.Fprintf(&b, "| Suggestions | %d |\n", report.Summary.Suggestions)
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", report.Summary.Total())

	if report.Summary.Total() == 0 {
		b.WriteString("No issues found. :white_check_mark:\n\n")
	} else {
		renderSeveritySections(&b, report.Findings)
	}

	fmt.Fprintf(&b, "---\n*Run `%s`*", report.RunID)
	if artifactURL != "" {
		fmt.Fprintf(&b, " | [Workflow run](%s)", artifactURL)
	}
	b.WriteString("\n")

	return b.String()
}

var severityOrder = []struct {
	severity Severity
	label    string
	icon     string
}{
	{SeverityBlocking, "Blocking", ":red_circle:"},
	{SeverityNonBlocking, "Non-blocking", ":orange_circle:"},
	{SeveritySuggestion, "Suggestions", ":yellow_circle:"},
}

func renderSeveritySections(b *strings.Builder, findings []Finding) {
	grouped := make(map[Severity][]Finding)
	for _, f := range findings {
		grouped[f.Severity] = append(grouped[f.Severity], f)
	}

	for _, group := range severityOrder {
		section := grouped[group.severity]
		if len(section) == 0 {
			continue
		}

		fmt.Fprintf(b, "<details>\n<summary>%s %s (%d)</summary>\n\n",
			group.icon, group.label, len(section))

		// Stable file order within a severity section.
		sort.SliceStable(section, func(i, j int) bool {
			return section[i].FilePath < section[j].FilePath
		})

		for _, f := range section {
			fmt.Fprintf(b, "### %s\n\n", f.Title)
			fmt.Fprintf(b, "%s | Confidence: %.0f%%\n\n", f.Category, f.Confidence*100)
			if f.FilePath != "" {
				fmt.Fprintf(b, "**`%s`**", f.FilePath)
				if f.LineStart > 0 {
					fmt.Fprintf(b, " (lines %d-%d)", f.LineStart, f.LineEnd)
				}
				b.WriteString("\n\n")
			}
			fmt.Fprintf(b, "%s\n\n", f.Description)

			if f.CodeSnippet != "" {
				fmt.Fprintf(b, "```%s\n%s\n```\n\n", inferLang(f.FilePath), f.CodeSnippet)
			}
			if f.SuggestedFix != "" {
				fmt.Fprintf(b, "**Suggested fix:** %s\n\n", f.SuggestedFix)
			}
		}

		b.WriteString("</details>\n\n")
	}
}

func inferLang(path string) string {
	langMap := map[string]string{
		".py":   "python",
		".pyi":  "python",
		".cs":   "csharp",
		".js":   "javascript",
		".mjs":  "javascript",
		".cjs":  "javascript",
		".jsx":  "jsx",
		".ts":   "typescript",
		".tsx":  "tsx",
		".mts":  "typescript",
		".cts":  "typescript",
		".go":   "go",
		".rb":   "ruby",
		".java": "java",
		".sql":  "sql",
		".sh":   "bash",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}
