package source

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("source not found")

// NotFoundError reports a path or glob that matched no file.
type NotFoundError struct {
	Source string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s not found: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s not found", e.Source)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
