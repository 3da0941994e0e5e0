package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/gavel/internal/langdetect"
	"github.com/dshills/gavel/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Gavel Code Review — %s\n", verdictLabel(report.Decision))
	if report.PR.Number > 0 {
		ew.printf("PR #%d: %s\n", report.PR.Number, report.PR.Title)
	}
	if len(report.Languages) > 0 {
		names := make([]string, len(report.Languages))
		for i, lang := range report.Languages {
			names[i] = langdetect.DisplayName(lang)
		}
		ew.printf("Languages: %s\n", strings.Join(names, ", "))
	}
	ew.printf("Confidence: %.0f%%\n", report.ConfidenceScore*100)
	ew.println(strings.Repeat("─", 60))

	if report.IntentSummary != "" {
		ew.println(report.IntentSummary)
		ew.println(strings.Repeat("─", 60))
	}

	total := report.Summary.Total()
	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	if ew.err == nil {
		ew.err = writeSummaryTable(w, report.Summary)
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range []review.Severity{review.SeverityBlocking, review.SeverityNonBlocking, review.SeveritySuggestion} {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("\n%s %s\n", severityIcon(sev), severityLabel(sev))
		ew.println(strings.Repeat("─", 40))

		// Stable presentation: sort by file path within severity.
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].FilePath < findings[j].FilePath
		})

		for _, f := range findings {
			ew.printf("\n  %s  %s\n", location(f), f.Title)
			ew.printf("  Category: %s | Confidence: %.0f%%\n",
				f.Category, f.Confidence*100)

			for _, line := range wrapText(f.Description, 70) {
				ew.printf("    %s\n", line)
			}

			if f.SuggestedFix != "" {
				ew.println("  Suggested fix:")
				for _, line := range wrapText(f.SuggestedFix, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Run %s\n", report.RunID)

	return ew.err
}

func writeSummaryTable(w io.Writer, counts review.SeverityCounts) error {
	table := tablewriter.NewTable(w)
	table.Header("Severity", "Count")
	table.Append("Blocking", strconv.Itoa(counts.Blocking))
	table.Append("Non-blocking", strconv.Itoa(counts.NonBlocking))
	table.Append("Suggestions", strconv.Itoa(counts.Suggestions))
	table.Append("Total", strconv.Itoa(counts.Total()))
	return table.Render()
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(findings []review.Finding) map[review.Severity][]review.Finding {
	m := make(map[review.Severity][]review.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func location(f review.Finding) string {
	if f.FilePath == "" {
		return "(no location)"
	}
	if f.LineStart == 0 {
		return f.FilePath
	}
	if f.LineEnd > f.LineStart {
		return fmt.Sprintf("%s:%d-%d", f.FilePath, f.LineStart, f.LineEnd)
	}
	return fmt.Sprintf("%s:%d", f.FilePath, f.LineStart)
}

func verdictLabel(decision string) string {
	switch decision {
	case review.DecisionPass:
		return "PASS"
	case review.DecisionFail:
		return "FAIL"
	default:
		return "INCOMPLETE"
	}
}

func severityLabel(s review.Severity) string {
	switch s {
	case review.SeverityBlocking:
		return "BLOCKING"
	case review.SeverityNonBlocking:
		return "NON-BLOCKING"
	default:
		return "SUGGESTIONS"
	}
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityBlocking:
		return "[!!]"
	case review.SeverityNonBlocking:
		return "[!]"
	default:
		return "[-]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
