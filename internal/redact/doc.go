// Package redact masks secrets in a loaded configuration tree before it is
// printed or cached.
//
// Three rules apply. Values stored under sensitive keys (password, secret,
// token, api_key and similar) are replaced with [REDACTED]. String values
// anywhere in the tree are scanned with regex heuristics covering common
// secret shapes: API keys, JWTs, private keys, AWS access key IDs, bearer
// tokens, and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
// Finally, key paths written as a/b/c that match a configured doublestar
// pattern are masked whole, whatever their type.
package redact
