// Package config loads and merges strata's own settings from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (STRATA_METHOD, STRATA_FORMAT, STRATA_MISSING, etc.)
//  3. Env file given with --env-file (read without touching the process env)
//  4. Config file ($XDG_CONFIG_HOME/strata/config.yaml)
//  5. Built-in defaults
//
// Every layer is turned into a tree and folded with the substitute merge
// method, so a layer overrides only the keys it actually sets. Use [Load] to
// obtain a merged [Config], [Init] to write a default config file, and
// [SetField] to update a single key.
package config
