// Package review implements the core review pipeline for gavel.
//
// A review run threads a PipelineState through a fixed linear sequence of
// stages: intent analysis, three concern-focused analysis stages
// (correctness, engineering quality, production readiness), a deterministic
// decision reducer, and a report renderer. Each stage returns a Patch that
// the pipeline merges into the running state; scalar fields overwrite,
// findings append in execution order and are never reordered or deduplicated.
//
// Analysis stages call the text-generation capability exactly once each and
// run their output through a tolerant JSON extractor (extract.go): malformed
// generator output yields zero findings for that stage instead of aborting
// the run, while a failed generation call aborts the whole pipeline.
//
// The decision reducer (decision.go) is a pure function of the accumulated
// findings: FAIL exactly when a BLOCKING finding exists, with a confidence
// score derived from the findings' own confidence values.
//
// Per-language review checklists ship as an embedded YAML criteria pack
// (criteria.go); rules packs (rules.go) let callers add focus areas and
// severity overrides.
package review
