package aks

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers/v4"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
	"github.com/yaegashi/botpressops/internal/naming"
)

// A trust grant is the set of flexible server firewall rules named
// naming.GrantRuleName(id, i), one per authorized source address.

type grantRule struct {
	name   string
	index  int
	source string
}

// grantRules filters the rules owned by the grant and orders them by index.
func grantRules(id string, rules []*armpostgresqlflexibleservers.FirewallRule) []grantRule {
	prefix := naming.GrantRulePrefix(id)
	var out []grantRule
	for _, r := range rules {
		if r == nil || r.Name == nil || !strings.HasPrefix(*r.Name, prefix) {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(*r.Name, prefix))
		if err != nil {
			continue
		}
		gr := grantRule{name: *r.Name, index: i}
		if r.Properties != nil && r.Properties.StartIPAddress != nil {
			gr.source = *r.Properties.StartIPAddress
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].index < out[b].index })
	return out
}

// listGrantRules returns the grant's rules, or nil when the server is gone.
func (d *driver) listGrantRules(ctx context.Context, pc *postgresClients, g *model.TrustGrant, id string) ([]grantRule, error) {
	var all []*armpostgresqlflexibleservers.FirewallRule
	pager := pc.firewall.NewListByServerPager(d.resourceGroupName, g.DatabaseCluster.Name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if isNotFoundError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("list firewall rules of %s: %w", g.DatabaseCluster.Name, err)
		}
		all = append(all, page.Value...)
	}
	return grantRules(id, all), nil
}

func (d *driver) putGrantRule(ctx context.Context, pc *postgresClients, server, name, source string) error {
	rule := armpostgresqlflexibleservers.FirewallRule{
		Properties: &armpostgresqlflexibleservers.FirewallRuleProperties{
			StartIPAddress: to.Ptr(source),
			EndIPAddress:   to.Ptr(source),
		},
	}
	poller, err := pc.firewall.BeginCreateOrUpdate(ctx, d.resourceGroupName, server, name, rule, nil)
	if err != nil {
		return fmt.Errorf("start firewall rule %s update: %w", name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("update firewall rule %s: %w", name, err)
	}
	return nil
}

func (d *driver) deleteGrantRule(ctx context.Context, pc *postgresClients, server, name string) error {
	poller, err := pc.firewall.BeginDelete(ctx, d.resourceGroupName, server, name, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("start firewall rule %s deletion: %w", name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("delete firewall rule %s: %w", name, err)
	}
	return nil
}

// TrustGrantSources returns the compute cluster's outbound addresses.
func (d *driver) TrustGrantSources(ctx context.Context, g *model.TrustGrant) ([]string, error) {
	return d.clusterEgressIPs(ctx, g.Cluster)
}

// TrustGrantRead returns the authorized sources, or nil when no rule exists.
func (d *driver) TrustGrantRead(ctx context.Context, g *model.TrustGrant, id string) (*model.TrustGrantState, error) {
	pc, err := d.postgresClients()
	if err != nil {
		return nil, err
	}
	rules, err := d.listGrantRules(ctx, pc, g, id)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	st := &model.TrustGrantState{ID: id}
	for _, r := range rules {
		st.Sources = append(st.Sources, r.source)
	}
	return st, nil
}

// TrustGrantCreate adds one firewall rule per desired source.
func (d *driver) TrustGrantCreate(ctx context.Context, g *model.TrustGrant, desired *model.TrustGrantState) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "TrustGrantCreate")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	for i, src := range desired.Sources {
		if err := d.putGrantRule(ctx, pc, g.DatabaseCluster.Name, naming.GrantRuleName(desired.ID, i), src); err != nil {
			return err
		}
	}
	return nil
}

// TrustGrantUpdate rewrites the rules to the desired sources and removes the
// ones left over.
func (d *driver) TrustGrantUpdate(ctx context.Context, g *model.TrustGrant, actual, desired *model.TrustGrantState) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "TrustGrantUpdate")
	defer func() { cleanup(err) }()

	logging.FromContext(ctx).Info(ctx, "trust grant sources changed", "grant", desired.ID, "from", actual.Sources, "to", desired.Sources)
	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	server := g.DatabaseCluster.Name
	keep := map[string]bool{}
	for i, src := range desired.Sources {
		name := naming.GrantRuleName(desired.ID, i)
		keep[name] = true
		if err := d.putGrantRule(ctx, pc, server, name, src); err != nil {
			return err
		}
	}
	rules, err := d.listGrantRules(ctx, pc, g, desired.ID)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if keep[r.name] {
			continue
		}
		if err := d.deleteGrantRule(ctx, pc, server, r.name); err != nil {
			return err
		}
	}
	return nil
}

// TrustGrantDelete removes every rule of the grant.
func (d *driver) TrustGrantDelete(ctx context.Context, g *model.TrustGrant, id string) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "TrustGrantDelete")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	rules, err := d.listGrantRules(ctx, pc, g, id)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if err := d.deleteGrantRule(ctx, pc, g.DatabaseCluster.Name, r.name); err != nil {
			return err
		}
	}
	return nil
}
