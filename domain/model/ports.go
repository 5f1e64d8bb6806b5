package model

import "context"

// ClusterPort provisions and connects to the compute cluster.
type ClusterPort interface {
	ClusterProvision(ctx context.Context, cluster *Cluster) error
	ClusterDeprovision(ctx context.Context, cluster *Cluster) error
	ClusterStatus(ctx context.Context, cluster *Cluster) (*ClusterStatus, error)
	ClusterKubeconfig(ctx context.Context, cluster *Cluster) ([]byte, error)
}

// DatabasePort manages the managed database cluster, its database and pool.
type DatabasePort interface {
	DatabaseClusterApply(ctx context.Context, db *DatabaseCluster, admin DatabaseCredentials) (*DatabaseClusterStatus, error)
	DatabaseClusterDelete(ctx context.Context, db *DatabaseCluster) error
	DatabaseCACertificate(ctx context.Context, db *DatabaseCluster) (string, error)
	DatabaseApply(ctx context.Context, db *Database) error
	DatabaseDelete(ctx context.Context, db *Database) error
	ConnectionPoolApply(ctx context.Context, pool *ConnectionPool, admin DatabaseCredentials) (*ConnectionPoolStatus, error)
	ConnectionPoolDelete(ctx context.Context, pool *ConnectionPool) error
}

// TrustGrantPort exposes the CRUD hooks of a database trust grant.
// TrustGrantRead returns nil without error when the grant does not exist.
type TrustGrantPort interface {
	TrustGrantSources(ctx context.Context, grant *TrustGrant) ([]string, error)
	TrustGrantRead(ctx context.Context, grant *TrustGrant, id string) (*TrustGrantState, error)
	TrustGrantCreate(ctx context.Context, grant *TrustGrant, desired *TrustGrantState) error
	TrustGrantUpdate(ctx context.Context, grant *TrustGrant, actual, desired *TrustGrantState) error
	TrustGrantDelete(ctx context.Context, grant *TrustGrant, id string) error
}

// DNSPort manages DNS records in provider zones.
type DNSPort interface {
	DNSApply(ctx context.Context, cluster *Cluster, rset DNSRecordSet) error
	DNSDelete(ctx context.Context, cluster *Cluster, rset DNSRecordSet) error
}

// KubePort applies in-cluster resources. Apply and Delete accept Namespace,
// StorageClaim, ConfigMap, Workload, Service, IngressRule and IngressController.
type KubePort interface {
	Apply(ctx context.Context, res Resource) error
	Delete(ctx context.Context, res Resource) error
	// IngressAddress returns the controller's external address, or "" while
	// the load balancer has not reported one.
	IngressAddress(ctx context.Context, ctrl *IngressController) (string, error)
}

// KubePortFactory connects a KubePort using cluster credentials.
type KubePortFactory func(ctx context.Context, kubeconfig []byte) (KubePort, error)
