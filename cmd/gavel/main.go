// Gavel reviews pull requests with a staged LLM pipeline and renders a
// deterministic PASS/FAIL verdict.
//
// It fetches a PR (or takes a local revision range or a diff on stdin),
// runs intent analysis plus three category reviews, reduces the findings to
// a verdict, and reports back as a PR comment and commit status or a local
// report.
//
// Usage:
//
//	gavel review pr 123                  # review a GitHub pull request
//	gavel review local origin/main..HEAD # review a local revision range
//	git diff | gavel review diff         # review a diff from stdin
//
// See https://github.com/dshills/gavel for full documentation.
package main

import (
	"os"

	"github.com/dshills/gavel/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
