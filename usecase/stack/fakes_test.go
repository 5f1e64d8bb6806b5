package stack

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/yaegashi/botpressops/adapters/store/inmem"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/topology"
)

// fakeProvider records calls in order and keeps trust grants in memory.
type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	egress  []string
	grants  map[string]*model.TrustGrantState
	admins  []model.DatabaseCredentials
	failURN string
	noDNS   bool
	// partialGrant makes TrustGrantCreate write only the first source and fail.
	partialGrant bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{egress: []string{"20.0.0.9"}, grants: map[string]*model.TrustGrantState{}}
}

func (f *fakeProvider) call(op string, res model.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	urn := ""
	if res != nil {
		urn = res.Metadata().URN()
	}
	f.calls = append(f.calls, op+" "+urn)
	if urn != "" && urn == f.failURN {
		return fmt.Errorf("injected failure")
	}
	return nil
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) ClusterProvision(ctx context.Context, c *model.Cluster) error {
	return f.call("ClusterProvision", c)
}
func (f *fakeProvider) ClusterDeprovision(ctx context.Context, c *model.Cluster) error {
	return f.call("ClusterDeprovision", c)
}
func (f *fakeProvider) ClusterStatus(ctx context.Context, c *model.Cluster) (*model.ClusterStatus, error) {
	return &model.ClusterStatus{Provisioned: true, ID: "/clusters/" + c.Name}, nil
}
func (f *fakeProvider) ClusterKubeconfig(ctx context.Context, c *model.Cluster) ([]byte, error) {
	return []byte("kubeconfig"), nil
}

func (f *fakeProvider) DatabaseClusterApply(ctx context.Context, db *model.DatabaseCluster, admin model.DatabaseCredentials) (*model.DatabaseClusterStatus, error) {
	f.mu.Lock()
	f.admins = append(f.admins, admin)
	f.mu.Unlock()
	if err := f.call("DatabaseClusterApply", db); err != nil {
		return nil, err
	}
	return &model.DatabaseClusterStatus{ID: "/servers/" + db.Name, Host: db.Name + ".postgres.example", Port: 5432}, nil
}
func (f *fakeProvider) DatabaseClusterDelete(ctx context.Context, db *model.DatabaseCluster) error {
	return f.call("DatabaseClusterDelete", db)
}
func (f *fakeProvider) DatabaseCACertificate(ctx context.Context, db *model.DatabaseCluster) (string, error) {
	return "-----BEGIN CERTIFICATE-----\n", nil
}
func (f *fakeProvider) DatabaseApply(ctx context.Context, db *model.Database) error {
	return f.call("DatabaseApply", db)
}
func (f *fakeProvider) DatabaseDelete(ctx context.Context, db *model.Database) error {
	return f.call("DatabaseDelete", db)
}
func (f *fakeProvider) ConnectionPoolApply(ctx context.Context, p *model.ConnectionPool, admin model.DatabaseCredentials) (*model.ConnectionPoolStatus, error) {
	if err := f.call("ConnectionPoolApply", p); err != nil {
		return nil, err
	}
	host, _ := p.Cluster.Host().Value()
	return &model.ConnectionPoolStatus{
		ID:  p.Name,
		URI: fmt.Sprintf("postgresql://%s:%s@%s:6432/%s", admin.User, admin.Password, host, p.Database.Name),
	}, nil
}
func (f *fakeProvider) ConnectionPoolDelete(ctx context.Context, p *model.ConnectionPool) error {
	return f.call("ConnectionPoolDelete", p)
}

func (f *fakeProvider) TrustGrantSources(ctx context.Context, g *model.TrustGrant) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.egress...), nil
}
func (f *fakeProvider) TrustGrantRead(ctx context.Context, g *model.TrustGrant, id string) (*model.TrustGrantState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.grants[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}
func (f *fakeProvider) TrustGrantCreate(ctx context.Context, g *model.TrustGrant, desired *model.TrustGrantState) error {
	if err := f.call("TrustGrantCreate", g); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.partialGrant && len(desired.Sources) > 1 {
		f.grants[desired.ID] = &model.TrustGrantState{ID: desired.ID, Sources: desired.Sources[:1]}
		return fmt.Errorf("rule 1 of %s rejected", desired.ID)
	}
	cp := *desired
	f.grants[desired.ID] = &cp
	return nil
}
func (f *fakeProvider) TrustGrantUpdate(ctx context.Context, g *model.TrustGrant, actual, desired *model.TrustGrantState) error {
	if err := f.call("TrustGrantUpdate", g); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *desired
	f.grants[desired.ID] = &cp
	return nil
}
func (f *fakeProvider) TrustGrantDelete(ctx context.Context, g *model.TrustGrant, id string) error {
	if err := f.call("TrustGrantDelete", g); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.grants, id)
	return nil
}

func (f *fakeProvider) DNSApply(ctx context.Context, c *model.Cluster, rset model.DNSRecordSet) error {
	if f.noDNS {
		return fmt.Errorf("fake: %w", model.ErrNotSupported)
	}
	return f.call("DNSApply "+string(rset.Type)+" "+rset.RData[0], nil)
}
func (f *fakeProvider) DNSDelete(ctx context.Context, c *model.Cluster, rset model.DNSRecordSet) error {
	return f.call("DNSDelete "+rset.FQDN, nil)
}

// fakeKube records applied and deleted URNs.
type fakeKube struct {
	mu      sync.Mutex
	applied []string
	deleted []string
	address string
}

func (k *fakeKube) Apply(ctx context.Context, res model.Resource) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.applied = append(k.applied, res.Metadata().URN())
	return nil
}

func (k *fakeKube) Delete(ctx context.Context, res model.Resource) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.deleted = append(k.deleted, res.Metadata().URN())
	return nil
}

func (k *fakeKube) IngressAddress(ctx context.Context, ctrl *model.IngressController) (string, error) {
	return k.address, nil
}

type fixture struct {
	uc       *UseCase
	provider *fakeProvider
	kube     *fakeKube
	state    *inmem.ResourceRepository
	pwCalls  int
}

func newTestFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider: newFakeProvider(),
		kube:     &fakeKube{address: "20.0.0.1"},
		state:    inmem.NewResourceRepository(),
	}
	f.uc = &UseCase{
		State:    f.state,
		Provider: f.provider,
		KubeFactory: func(ctx context.Context, kubeconfig []byte) (model.KubePort, error) {
			return f.kube, nil
		},
		NewPassword: func() (string, error) {
			f.pwCalls++
			return fmt.Sprintf("Pw%d", f.pwCalls), nil
		},
	}
	return f
}

func testStackConfig(mode topology.StorageMode, domain string) topology.Config {
	return topology.Config{
		Stack:       "demo",
		Cluster:     topology.ClusterConfig{Name: "demo-aks", Provider: "aks", Region: "eastus"},
		Namespace:   "apps",
		Ingress:     topology.DefaultIngressOptions(),
		LangServer:  topology.WorkloadConfig{Image: "botpress/server", Tag: "v12_30_7", Replicas: 1, Storage: "5Gi"},
		MainServer:  topology.WorkloadConfig{Image: "botpress/server", Tag: "v12_30_7", Replicas: 1, Storage: "1Gi"},
		StorageMode: mode,
		Database: topology.DatabaseArgs{
			Name: "demo-db", Version: "16", Size: "Standard_D2ds_v4", NodeCount: 1,
			StorageGB: 32, DBName: "botpress", PoolMode: "transaction", PoolSize: 20,
		},
		Pool:   topology.PoolSizing{Min: 2, Max: 5},
		Domain: domain,
	}
}

// buildStack declares a fresh stack; each engine run gets its own
// declaration, as each CLI invocation does.
func buildStack(t *testing.T, mode topology.StorageMode, domain string) *topology.Stack {
	t.Helper()
	st, err := topology.Build(context.Background(), testStackConfig(mode, domain))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return st
}

func actions(results []ResourceResult) map[string]string {
	m := make(map[string]string, len(results))
	for _, r := range results {
		m[r.URN] = r.Action
	}
	return m
}
