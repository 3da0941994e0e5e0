// Package cli wires together the Cobra command tree for the gavel binary.
//
// It defines the root command and all subcommands (review, config, models,
// cache, version), binds flags, reads configuration, invokes the review
// pipeline, and returns deterministic exit codes for CI gating. The review
// pr command additionally reports back to GitHub via commit statuses and an
// upserted PR comment.
package cli
