package stack

import (
	"context"
	"fmt"
	"time"

	"github.com/yaegashi/botpressops/domain/topology"
	"github.com/yaegashi/botpressops/internal/logging"
)

// DestroyInput holds parameters for destroying a stack.
type DestroyInput struct {
	Stack *topology.Stack
}

// DestroyOutput holds the result of destroying a stack.
type DestroyOutput struct {
	Resources []ResourceResult `json:"resources"`
}

// Destroy deletes the recorded resources in reverse dependency order and
// forgets each one once it is gone. It stops at the first failure so that a
// rerun resumes where it left off.
func (u *UseCase) Destroy(ctx context.Context, in *DestroyInput) (*DestroyOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	s, err := u.newSession(ctx, in.Stack)
	if err != nil {
		return nil, err
	}
	order, err := in.Stack.Graph.Reverse()
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	out := &DestroyOutput{}
	for _, n := range order {
		if !s.recorded(n.URN) {
			continue
		}
		start := time.Now()
		if err := s.destroy(ctx, n.Resource); err != nil {
			logger.Warn(ctx, "STACK:"+n.URN+":FAILED", "err", err)
			out.Resources = append(out.Resources, ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionFailed, Message: err.Error()})
			return out, fmt.Errorf("destroy %s: %w", n.URN, err)
		}
		if err := s.forget(ctx, n.URN); err != nil {
			return out, err
		}
		logger.Info(ctx, "STACK:"+n.URN+":DELETE", "elapsed", time.Since(start).Seconds())
		out.Resources = append(out.Resources, ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionDelete})
	}
	for _, o := range s.orphans() {
		logger.Warn(ctx, "resource recorded in state is no longer declared; not destroyed", "urn", o.URN)
		out.Resources = append(out.Resources, ResourceResult{URN: o.URN, Kind: o.Kind, Action: ActionOrphaned})
	}
	return out, nil
}
