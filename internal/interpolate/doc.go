// Package interpolate rewrites template expressions held in string values of
// a configuration tree, evaluating each against a bindings tree.
package interpolate
