// Package k3s implements the provider driver for an existing k3s (or any
// kubeconfig-reachable) cluster. It offers no managed database or DNS.
package k3s

import (
	"context"
	"fmt"
	"os"
	"strings"

	providerdrv "github.com/yaegashi/botpressops/adapters/drivers/provider"
	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/kubeconfig"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	settingKubeconfig = "K3S_KUBECONFIG"
	settingContext    = "K3S_CONTEXT"

	defaultKubeconfig = "/etc/rancher/k3s/k3s.yaml"
)

// driver implements the K3s provider driver.
type driver struct {
	stack    string
	settings map[string]string
}

// ID returns the provider identifier.
func (d *driver) ID() string { return "k3s" }

// setting prefers the cluster settings over the driver settings.
func (d *driver) setting(cluster *model.Cluster, key string) string {
	if cluster != nil {
		if v := strings.TrimSpace(cluster.Settings[key]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(d.settings[key])
}

func (d *driver) kubeconfig(cluster *model.Cluster) ([]byte, error) {
	path := d.setting(cluster, settingKubeconfig)
	if path == "" {
		path = defaultKubeconfig
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kubeconfig %s: %w", path, err)
	}
	out, err := kubeconfig.Select(data, d.setting(cluster, settingContext))
	if err != nil {
		return nil, fmt.Errorf("kubeconfig %s: %w", path, err)
	}
	return out, nil
}

// ClusterProvision only verifies that the kubeconfig is usable; k3s clusters
// are always managed outside botpressops.
func (d *driver) ClusterProvision(ctx context.Context, cluster *model.Cluster) error {
	kc, err := d.kubeconfig(cluster)
	if err != nil {
		return err
	}
	server, err := kubeconfig.Server(kc)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info(ctx, "K3S:ClusterProvision:existing", "cluster", cluster.Name, "server", server)
	return nil
}

// ClusterDeprovision leaves the cluster in place.
func (d *driver) ClusterDeprovision(ctx context.Context, cluster *model.Cluster) error {
	logging.FromContext(ctx).Info(ctx, "K3S:ClusterDeprovision:skip", "cluster", cluster.Name)
	return nil
}

// ClusterStatus reports the API server of the configured context.
func (d *driver) ClusterStatus(ctx context.Context, cluster *model.Cluster) (*model.ClusterStatus, error) {
	st := &model.ClusterStatus{Existing: true}
	kc, err := d.kubeconfig(cluster)
	if err != nil {
		return st, err
	}
	server, err := kubeconfig.Server(kc)
	if err != nil {
		return st, err
	}
	st.ID = server
	st.Provisioned = true
	return st, nil
}

// ClusterKubeconfig returns the selected context of the configured kubeconfig.
func (d *driver) ClusterKubeconfig(ctx context.Context, cluster *model.Cluster) ([]byte, error) {
	return d.kubeconfig(cluster)
}

func notSupported(op string) error {
	return fmt.Errorf("k3s: %s: %w", op, model.ErrNotSupported)
}

// Database management (not supported for k3s)
func (d *driver) DatabaseClusterApply(ctx context.Context, db *model.DatabaseCluster, admin model.DatabaseCredentials) (*model.DatabaseClusterStatus, error) {
	return nil, notSupported("DatabaseClusterApply")
}
func (d *driver) DatabaseClusterDelete(ctx context.Context, db *model.DatabaseCluster) error {
	return notSupported("DatabaseClusterDelete")
}
func (d *driver) DatabaseCACertificate(ctx context.Context, db *model.DatabaseCluster) (string, error) {
	return "", notSupported("DatabaseCACertificate")
}
func (d *driver) DatabaseApply(ctx context.Context, db *model.Database) error {
	return notSupported("DatabaseApply")
}
func (d *driver) DatabaseDelete(ctx context.Context, db *model.Database) error {
	return notSupported("DatabaseDelete")
}
func (d *driver) ConnectionPoolApply(ctx context.Context, pool *model.ConnectionPool, admin model.DatabaseCredentials) (*model.ConnectionPoolStatus, error) {
	return nil, notSupported("ConnectionPoolApply")
}
func (d *driver) ConnectionPoolDelete(ctx context.Context, pool *model.ConnectionPool) error {
	return notSupported("ConnectionPoolDelete")
}

// Trust grants (not supported for k3s)
func (d *driver) TrustGrantSources(ctx context.Context, g *model.TrustGrant) ([]string, error) {
	return nil, notSupported("TrustGrantSources")
}
func (d *driver) TrustGrantRead(ctx context.Context, g *model.TrustGrant, id string) (*model.TrustGrantState, error) {
	return nil, notSupported("TrustGrantRead")
}
func (d *driver) TrustGrantCreate(ctx context.Context, g *model.TrustGrant, desired *model.TrustGrantState) error {
	return notSupported("TrustGrantCreate")
}
func (d *driver) TrustGrantUpdate(ctx context.Context, g *model.TrustGrant, actual, desired *model.TrustGrantState) error {
	return notSupported("TrustGrantUpdate")
}
func (d *driver) TrustGrantDelete(ctx context.Context, g *model.TrustGrant, id string) error {
	return notSupported("TrustGrantDelete")
}

// DNS (not supported for k3s)
func (d *driver) DNSApply(ctx context.Context, cluster *model.Cluster, rset model.DNSRecordSet) error {
	return notSupported("DNSApply")
}
func (d *driver) DNSDelete(ctx context.Context, cluster *model.Cluster, rset model.DNSRecordSet) error {
	return notSupported("DNSDelete")
}

// IngressMutators returns no adjustments; the k3s service load balancer
// accepts the chart defaults.
func (d *driver) IngressMutators() []kube.HelmValuesMutator { return nil }

func init() {
	providerdrv.Register("k3s", func(stack string, settings map[string]string) (providerdrv.Driver, error) {
		return &driver{stack: stack, settings: settings}, nil
	})
}
