// Package source resolves configuration sources (files, globs, inline
// documents) into parsed trees, handling the !include and !load YAML tags.
package source
