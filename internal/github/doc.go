// Package github is the source-control glue around the review pipeline: it
// fetches pull request metadata and per-file patches (concurrently, via
// errgroup), assembles them into the pipeline's diff format, sets the
// "Gavel Review" commit status, and posts or updates the review comment on
// the pull request.
package github
