package merge

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with [errors.Is].
var (
	// ErrUnsupported indicates a strategy has no rule for the pair of kinds.
	ErrUnsupported = errors.New("unsupported merge")
	// ErrInvalidMethod indicates a merge method name or number is unknown.
	ErrInvalidMethod = errors.New("invalid merge method")
)

// UnsupportedMergeError is returned when the base and override kinds cannot be
// merged under the active strategy.
type UnsupportedMergeError struct {
	// Method names the strategy that failed.
	Method string
	// Path locates the failing node below the merge root; empty at the root.
	Path string
	// Base and Override describe the two values (scalar type or node kind).
	Base     string
	Override string
	// Detail adds context for fold failures.
	Detail string
}

func (e *UnsupportedMergeError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	msg := fmt.Sprintf("cannot (%s) merge %s into %s at %s", e.Method, e.Override, e.Base, path)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *UnsupportedMergeError) Is(target error) bool {
	return target == ErrUnsupported
}

// InvalidMergeMethodError reports a merge method that matches no strategy.
type InvalidMergeMethodError struct {
	Value any
}

func (e *InvalidMergeMethodError) Error() string {
	return fmt.Sprintf("invalid merge method %#v (want one of %s)", e.Value, methodList())
}

func (e *InvalidMergeMethodError) Is(target error) bool {
	return target == ErrInvalidMethod
}
