package aks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	clusterProvisionTimeout = time.Hour
	defaultNodePoolName     = "system"
	defaultNodePoolSize     = "Standard_D2s_v3"
	defaultNodePoolCount    = 2
)

func (d *driver) location(region string) string {
	if region != "" {
		return region
	}
	return d.AzureLocation
}

func (d *driver) managedClustersClient() (*armcontainerservice.ManagedClustersClient, error) {
	c, err := armcontainerservice.NewManagedClustersClient(d.AzureSubscriptionId, d.TokenCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("create AKS client: %w", err)
	}
	return c, nil
}

// getManagedCluster returns the cluster or nil when it does not exist.
func (d *driver) getManagedCluster(ctx context.Context, name string) (*armcontainerservice.ManagedCluster, error) {
	c, err := d.managedClustersClient()
	if err != nil {
		return nil, err
	}
	res, err := c.Get(ctx, d.resourceGroupName, name, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get AKS cluster %s: %w", name, err)
	}
	return &res.ManagedCluster, nil
}

func nodePoolSpec(np model.NodePool) (string, string, int32) {
	name, size, count := np.Name, np.Size, np.Count
	if name == "" {
		name = defaultNodePoolName
	}
	if size == "" {
		size = defaultNodePoolSize
	}
	if count <= 0 {
		count = defaultNodePoolCount
	}
	return name, size, count
}

// clusterUpToDate reports whether a provisioned cluster already matches the descriptor.
func clusterUpToDate(mc *armcontainerservice.ManagedCluster, cluster *model.Cluster) bool {
	if mc == nil || mc.Properties == nil {
		return false
	}
	p := mc.Properties
	if p.ProvisioningState == nil || *p.ProvisioningState != "Succeeded" {
		return false
	}
	if cluster.Version != "" && (p.KubernetesVersion == nil || *p.KubernetesVersion != cluster.Version) {
		return false
	}
	name, _, count := nodePoolSpec(cluster.NodePool)
	for _, ap := range p.AgentPoolProfiles {
		if ap != nil && ap.Name != nil && *ap.Name == name {
			return ap.Count != nil && *ap.Count == count
		}
	}
	return false
}

// ClusterProvision creates or converges the AKS cluster. Existing clusters are
// only verified.
func (d *driver) ClusterProvision(ctx context.Context, cluster *model.Cluster) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "ClusterProvision")
	defer func() { cleanup(err) }()

	ctx, cancel := context.WithTimeout(ctx, clusterProvisionTimeout)
	defer cancel()

	mc, err := d.getManagedCluster(ctx, cluster.Name)
	if err != nil {
		return err
	}
	if cluster.Existing {
		if mc == nil {
			return fmt.Errorf("existing AKS cluster %s not found in resource group %s", cluster.Name, d.resourceGroupName)
		}
		return nil
	}
	if clusterUpToDate(mc, cluster) {
		logging.FromContext(ctx).Info(ctx, "aks cluster already provisioned", "cluster", cluster.Name)
		return nil
	}

	location := d.location(cluster.Region)
	if location == "" {
		return fmt.Errorf("cluster region or %s is required", settingLocation)
	}
	if err := d.ensureAzureResourceGroupCreated(ctx, location); err != nil {
		return err
	}

	npName, npSize, npCount := nodePoolSpec(cluster.NodePool)
	params := armcontainerservice.ManagedCluster{
		Location: to.Ptr(location),
		Tags:     d.tags(),
		Identity: &armcontainerservice.ManagedClusterIdentity{
			Type: to.Ptr(armcontainerservice.ResourceIdentityTypeSystemAssigned),
		},
		Properties: &armcontainerservice.ManagedClusterProperties{
			DNSPrefix: to.Ptr(cluster.Name),
			AgentPoolProfiles: []*armcontainerservice.ManagedClusterAgentPoolProfile{
				{
					Name:   to.Ptr(npName),
					Count:  to.Ptr(npCount),
					VMSize: to.Ptr(npSize),
					OSType: to.Ptr(armcontainerservice.OSTypeLinux),
					Type:   to.Ptr(armcontainerservice.AgentPoolTypeVirtualMachineScaleSets),
					Mode:   to.Ptr(armcontainerservice.AgentPoolModeSystem),
				},
			},
			NetworkProfile: &armcontainerservice.NetworkProfile{
				LoadBalancerSKU: to.Ptr(armcontainerservice.LoadBalancerSKUStandard),
			},
		},
	}
	if cluster.Version != "" {
		params.Properties.KubernetesVersion = to.Ptr(cluster.Version)
	}

	c, err := d.managedClustersClient()
	if err != nil {
		return err
	}
	poller, err := c.BeginCreateOrUpdate(ctx, d.resourceGroupName, cluster.Name, params, nil)
	if err != nil {
		return fmt.Errorf("start AKS cluster creation: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("create AKS cluster %s: %w", cluster.Name, err)
	}
	return nil
}

// ClusterDeprovision deletes the AKS cluster. Existing clusters are left alone.
func (d *driver) ClusterDeprovision(ctx context.Context, cluster *model.Cluster) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "ClusterDeprovision")
	defer func() { cleanup(err) }()

	if cluster.Existing {
		logging.FromContext(ctx).Info(ctx, "skipping deletion of existing cluster", "cluster", cluster.Name)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, clusterProvisionTimeout)
	defer cancel()

	c, err := d.managedClustersClient()
	if err != nil {
		return err
	}
	poller, err := c.BeginDelete(ctx, d.resourceGroupName, cluster.Name, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("start AKS cluster deletion: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("delete AKS cluster %s: %w", cluster.Name, err)
	}
	return nil
}

// ClusterStatus returns the status of the AKS cluster.
func (d *driver) ClusterStatus(ctx context.Context, cluster *model.Cluster) (*model.ClusterStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	status := &model.ClusterStatus{Existing: cluster.Existing}
	mc, err := d.getManagedCluster(ctx, cluster.Name)
	if err != nil {
		return status, err
	}
	if mc == nil || mc.Properties == nil {
		return status, nil
	}
	if mc.ID != nil {
		status.ID = *mc.ID
	}
	if mc.Properties.KubernetesVersion != nil {
		status.Version = *mc.Properties.KubernetesVersion
	}
	if mc.Properties.ProvisioningState != nil && *mc.Properties.ProvisioningState == "Succeeded" {
		status.Provisioned = true
	}
	return status, nil
}

// ClusterKubeconfig returns the admin kubeconfig of the AKS cluster.
func (d *driver) ClusterKubeconfig(ctx context.Context, cluster *model.Cluster) ([]byte, error) {
	c, err := d.managedClustersClient()
	if err != nil {
		return nil, err
	}
	res, err := c.ListClusterAdminCredentials(ctx, d.resourceGroupName, cluster.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("get cluster credentials: %w", err)
	}
	if len(res.Kubeconfigs) == 0 || len(res.Kubeconfigs[0].Value) == 0 {
		return nil, fmt.Errorf("no kubeconfig found for cluster %s", cluster.Name)
	}
	return res.Kubeconfigs[0].Value, nil
}

// clusterEgressIPs returns the sorted public outbound addresses of the cluster's load balancer.
func (d *driver) clusterEgressIPs(ctx context.Context, cluster *model.Cluster) ([]string, error) {
	mc, err := d.getManagedCluster(ctx, cluster.Name)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, fmt.Errorf("AKS cluster %s not found", cluster.Name)
	}
	refs := effectiveOutboundIPIDs(mc)
	if len(refs) == 0 {
		return nil, fmt.Errorf("AKS cluster %s reports no effective outbound IPs", cluster.Name)
	}
	ips := make([]string, 0, len(refs))
	for _, id := range refs {
		ip, err := d.publicIPAddress(ctx, id)
		if err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips, nil
}

func effectiveOutboundIPIDs(mc *armcontainerservice.ManagedCluster) []string {
	if mc.Properties == nil || mc.Properties.NetworkProfile == nil || mc.Properties.NetworkProfile.LoadBalancerProfile == nil {
		return nil
	}
	var ids []string
	for _, ref := range mc.Properties.NetworkProfile.LoadBalancerProfile.EffectiveOutboundIPs {
		if ref != nil && ref.ID != nil && *ref.ID != "" {
			ids = append(ids, *ref.ID)
		}
	}
	return ids
}
