// Package langdetect classifies changed files into the closed set of
// languages the review checklists cover, and filters out files that should
// never reach review (workflows, config, lock files, docs, build artifacts,
// test fixtures).
package langdetect

import (
	"path/filepath"
	"sort"
	"strings"
)

// languageMap maps file extensions to language identifiers.
var languageMap = map[string]string{
	".py":  "python",
	".pyi": "python",

	".cs":     "dotnet",
	".csx":    "dotnet",
	".csproj": "dotnet",
	".sln":    "dotnet",

	".js":  "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".jsx": "javascript",

	".ts":  "typescript",
	".tsx": "typescript",
	".mts": "typescript",
	".cts": "typescript",
}

// excludedPatterns are matched as lowercase substrings against the path.
var excludedPatterns = []string{
	".github/",
	".gitlab-ci",

	".yml",
	".yaml",
	".json",
	".toml",
	".ini",
	".cfg",
	".conf",

	".md",
	".rst",
	".txt",

	"package-lock.json",
	"yarn.lock",
	"poetry.lock",
	"pipfile.lock",

	".min.js",
	".bundle.js",
	".map",

	"fixtures/",
	"testdata/",
	"__snapshots__/",
}

var displayNames = map[string]string{
	"python":     "Python",
	"dotnet":     ".NET (C#)",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
}

// Language returns the language identifier for a filename, or "" when the
// extension is not in the supported set.
func Language(filename string) string {
	return languageMap[strings.ToLower(filepath.Ext(filename))]
}

// ShouldReview reports whether a file belongs in the review: a supported
// language and not on the exclusion list.
func ShouldReview(filename string) bool {
	lower := strings.ToLower(filename)
	for _, pattern := range excludedPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return Language(filename) != ""
}

// Detect returns the sorted set of languages present in the reviewable
// subset of the given files.
func Detect(filenames []string) []string {
	seen := make(map[string]bool)
	for _, f := range filenames {
		if !ShouldReview(f) {
			continue
		}
		seen[Language(f)] = true
	}

	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// DisplayName returns a human-readable name for a language identifier.
// Unknown identifiers are title-cased.
func DisplayName(lang string) string {
	if name, ok := displayNames[lang]; ok {
		return name
	}
	if lang == "" {
		return ""
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}
