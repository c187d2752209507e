// Strata is a CLI for loading hierarchical configuration.
//
// It merges YAML, JSON and TOML sources from left to right with one of three
// merge methods, resolves !include and !load directives, optionally renders
// Jinja templates against the merged tree, and prints the result with
// deterministic exit codes suitable for scripts and CI.
//
// Usage:
//
//	strata load base.yaml prod.yaml            # simple merge, YAML output
//	strata load --method deep conf.d/*.yaml    # deep merge a glob
//	strata load --interpolate --format json app.yaml
//	strata load --watch base.yaml local.yaml   # print again on every change
//	strata methods                             # list merge methods
//	strata config show                         # effective settings
package main
