// Package config loads and persists gavel configuration.
//
// Effective config is layered with koanf: built-in defaults, then the JSON
// config file under the platform config directory, then GAVEL_* environment
// variables (double underscore for nesting, e.g. GAVEL_CACHE__ENABLED), then
// CLI flag overrides. LoadActionEnv validates the GitHub Actions environment
// (GITHUB_TOKEN, GITHUB_REPOSITORY, PR_NUMBER) separately so a broken CI
// setup fails before any model calls are made.
package config
