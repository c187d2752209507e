// Package output renders configuration trees for display or machine
// consumption.
//
// Five formats are supported:
//   - yaml: ordered YAML (default)
//   - json: indented JSON with mapping order preserved
//   - toml: TOML; the root must be a mapping and null values are dropped
//   - text: one `path = value` line per leaf
//   - env:  dotenv KEY="value" lines for shell sourcing
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*tree.Node]. [Render] returns
// the formatted text and [Emit] handles destination selection.
package output
