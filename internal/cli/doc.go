// Package cli wires together the Cobra command tree for the strata binary.
//
// It defines the root command and all subcommands (load, methods, config,
// cache, version), binds flags, reads configuration, runs the loader, and
// returns deterministic exit codes for scripts and CI.
package cli
