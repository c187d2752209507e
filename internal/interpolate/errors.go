package interpolate

import (
	"errors"
	"fmt"
)

var (
	// ErrInterpolation matches every *InterpolationError.
	ErrInterpolation = errors.New("interpolation failed")
	// ErrUndefined is the cause reported when a template names a path that
	// does not exist in the bindings.
	ErrUndefined = errors.New("undefined")
)

// InterpolationError wraps an evaluator failure with the string that failed
// and where it sits in the tree.
type InterpolationError struct {
	Path  string
	Value string
	Err   error
}

func (e *InterpolationError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("interpolate %s: %q: %v", path, e.Value, e.Err)
}

func (e *InterpolationError) Unwrap() error { return e.Err }

func (e *InterpolationError) Is(target error) bool {
	return target == ErrInterpolation
}
