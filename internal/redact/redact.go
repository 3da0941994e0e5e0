// Package redact strips secrets from diff text before it leaves the
// process. Detection is heuristic: regex patterns for common key and token
// formats, plus glob path policies for files whose entire content should
// never be sent (.env, anything matching *secrets*).
package redact

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// ShouldRedactPath checks if a file path matches any of the redaction glob
// patterns. Patterns use doublestar syntax, so "**/.env" matches at any
// depth including the repository root.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// Content redacts secrets from content, or the whole content when the file
// path matches a redaction pattern.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)"
	}
	return Secrets(content)
}

var sectionHeader = regexp.MustCompile(`^=== (.+?) \([a-z]+\) ===$`)

// Diff applies the full redaction policy to an assembled diff. File
// sections are recognized by their "=== <path> (<status>) ===" headers;
// a section whose path matches a policy pattern is replaced wholesale, and
// everything else is secret-scanned.
func Diff(diff string, redactPaths []string) string {
	lines := strings.Split(diff, "\n")
	var out []string
	path := ""
	start := 0
	flush := func(end int) {
		if start >= end {
			return
		}
		body := strings.Join(lines[start:end], "\n")
		out = append(out, Content(body, path, redactPaths))
	}
	for i, line := range lines {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			flush(i)
			out = append(out, line)
			path = m[1]
			start = i + 1
		}
	}
	flush(len(lines))
	return strings.Join(out, "\n")
}
