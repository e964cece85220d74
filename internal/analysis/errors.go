package analysis

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a refinement names a session that was
// never created or has expired.
var ErrSessionNotFound = errors.New("session not found or expired; analyze a resume first")

// ExecutionError wraps a pipeline failure so handlers can distinguish bad
// input from runtime trouble.
type ExecutionError struct {
	Graph string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s pipeline execution failed: %v", e.Graph, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
