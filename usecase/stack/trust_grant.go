package stack

import (
	"context"
	"fmt"
	"slices"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
	"github.com/yaegashi/botpressops/internal/naming"
)

// reconcileTrustGrant converges the grant to the compute cluster's current
// egress addresses: create when absent, update when the sources differ,
// nothing otherwise. A grant id recorded in state wins over the derived one.
func reconcileTrustGrant(ctx context.Context, port model.TrustGrantPort, g *model.TrustGrant, stack string) (string, error) {
	id, ok := g.ID().Get()
	if !ok || id == "" {
		id = naming.GrantID(stack, g.URN())
	}
	sources, err := port.TrustGrantSources(ctx, g)
	if err != nil {
		return ActionFailed, fmt.Errorf("trust grant sources: %w", err)
	}
	desired := &model.TrustGrantState{ID: id, Sources: normalizeSources(sources)}
	if len(desired.Sources) == 0 {
		return ActionFailed, fmt.Errorf("trust grant %s: cluster reports no egress addresses", g.URN())
	}

	actual, err := port.TrustGrantRead(ctx, g, id)
	if err != nil {
		return ActionFailed, fmt.Errorf("read trust grant: %w", err)
	}

	action := ActionUnchanged
	switch {
	case actual == nil:
		action = ActionCreate
		err = port.TrustGrantCreate(ctx, g, desired)
	case !slices.Equal(normalizeSources(actual.Sources), desired.Sources):
		action = ActionUpdate
		err = port.TrustGrantUpdate(ctx, g, actual, desired)
	}
	if err != nil {
		return ActionFailed, fmt.Errorf("%s trust grant: %w", action, err)
	}
	logging.FromContext(ctx).Debug(ctx, "trust grant reconciled", "grant", id, "action", action, "sources", desired.Sources)
	g.SetID(id)
	return action, nil
}

// deleteTrustGrant removes the grant recorded in state, if any.
func deleteTrustGrant(ctx context.Context, port model.TrustGrantPort, g *model.TrustGrant) error {
	id, ok := g.ID().Get()
	if !ok || id == "" {
		return nil
	}
	if err := port.TrustGrantDelete(ctx, g, id); err != nil {
		return fmt.Errorf("delete trust grant: %w", err)
	}
	return nil
}

func normalizeSources(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
