// Package gitctx collects diffs from a local git repository for the
// review local command. Ranges are resolved with go-git: "base..head"
// compares two revisions, a bare revision is compared against its first
// parent. Per-file patches are assembled into the same header format the
// GitHub fetcher produces so the pipeline sees a uniform diff.
package gitctx
