package stack

import (
	"context"
	"fmt"
	"strings"

	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
	"github.com/yaegashi/botpressops/domain/topology"
)

// PreviewInput holds parameters for planning a stack.
type PreviewInput struct {
	Stack *topology.Stack
	// Manifests renders the in-cluster resources as YAML with pending
	// values shown as placeholders.
	Manifests bool
}

// PreviewOutput holds the plan.
type PreviewOutput struct {
	Resources []ResourceResult `json:"resources"`
	Manifest  string           `json:"manifest,omitempty"`
}

// Preview reports what Up would do without touching any provider.
func (u *UseCase) Preview(ctx context.Context, in *PreviewInput) (*PreviewOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	s, err := u.newSession(ctx, in.Stack)
	if err != nil {
		return nil, err
	}
	sorted, err := in.Stack.Graph.Sorted()
	if err != nil {
		return nil, err
	}

	out := &PreviewOutput{}
	resources := make([]model.Resource, 0, len(sorted))
	for _, n := range sorted {
		resources = append(resources, n.Resource)
		r := ResourceResult{URN: n.URN, Kind: n.Kind(), Action: ActionCreate}
		if s.recorded(n.URN) {
			r.Action = ActionUpdate
		}
		if pending := output.Pending(n.Resource.Inputs()...); len(pending) > 0 {
			r.Action = ActionPending
			r.Message = "waiting for " + strings.Join(pendingDeps(pending), ", ")
		}
		out.Resources = append(out.Resources, r)
	}
	for _, o := range s.orphans() {
		out.Resources = append(out.Resources, ResourceResult{
			URN:     o.URN,
			Kind:    o.Kind,
			Action:  ActionOrphaned,
			Message: "recorded in state but no longer declared",
		})
	}

	if in.Manifests {
		m, err := kube.RenderManifest(resources, kube.RenderOptions{AllowPending: true})
		if err != nil {
			return nil, fmt.Errorf("render manifests: %w", err)
		}
		out.Manifest = m
	}
	return out, nil
}
