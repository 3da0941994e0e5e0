// Package providers implements the text-generation capability behind the
// review pipeline. Each provider wraps one HTTP API (OpenAI chat
// completions, Anthropic messages) behind the Client interface, with a
// 120-second request timeout, typed auth/rate-limit/server errors, and
// exponential backoff on the retryable ones. Retries happen here, below the
// pipeline: a stage still observes exactly one generation call.
package providers
