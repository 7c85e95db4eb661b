package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation against a nonexistent id. No write is
// performed when it is returned.
var ErrNotFound = errors.New("record not found")

// ValidationError reports malformed or missing required input at the
// repository boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
