package stack

import (
	"context"
	"fmt"

	"github.com/yaegashi/botpressops/domain/topology"
)

// OutputsInput holds parameters for reading stack exports.
type OutputsInput struct {
	Stack *topology.Stack
}

// OutputsOutput holds the exports restored from state.
type OutputsOutput struct {
	Values  map[string]string `json:"values"`
	Pending []string          `json:"pending,omitempty"`
}

// Outputs returns the stack exports as of the last Up.
func (u *UseCase) Outputs(ctx context.Context, in *OutputsInput) (*OutputsOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if _, err := u.newSession(ctx, in.Stack); err != nil {
		return nil, err
	}
	values, pending := exports(in.Stack)
	return &OutputsOutput{Values: values, Pending: pending}, nil
}
