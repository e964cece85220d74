package pipeline

import "context"

// ExecRequest carries everything a runtime needs to execute one unit.
type ExecRequest struct {
	Unit  *UnitSpec
	Model string
	Input string
	State map[string]string
}

// Executor dispatches runtime-backed units. Local units never reach it.
type Executor interface {
	Execute(ctx context.Context, req ExecRequest) (string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req ExecRequest) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, req ExecRequest) (string, error) {
	return f(ctx, req)
}
