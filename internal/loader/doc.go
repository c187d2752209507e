// Package loader folds configuration sources into one tree with a merge
// strategy and optionally interpolates the result.
package loader
